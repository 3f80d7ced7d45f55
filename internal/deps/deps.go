// Package deps reports the availability of external binaries the pipeline
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/kagelump/vlog/internal/config"
)

// Requirement defines an external dependency vlog relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Resolve builds the requirement list for the given configuration and checks
// each binary. The transcription binary is only listed when enabled.
func Resolve(cfg *config.Config) []Status {
	requirements := []Requirement{
		{
			Name:        "ffprobe",
			Command:     "ffprobe",
			Description: "Reads clip duration and stream metadata",
		},
	}
	if cfg != nil && cfg.Transcription.Enabled {
		requirements = append(requirements, Requirement{
			Name:        "whisper",
			Command:     cfg.Transcription.Binary,
			Description: "Transcribes dialogue for description context",
			Optional:    true,
		})
	}
	return CheckBinaries(requirements)
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
