package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ClipInfo carries the container metadata the ingest pipeline needs.
type ClipInfo struct {
	LengthSeconds float64
	// Timestamp is the file's modification time in RFC 3339 form. Cameras
	// set mtime to the end of recording, which is close enough to when the
	// footage was shot.
	Timestamp string
}

type probeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
}

type probeStream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// Probe inspects the video at path. An empty binary falls back to ffprobe
// on PATH. The timestamp is filled from the file's mtime even when ffprobe
// itself fails, so callers always get a usable ClipInfo back.
func Probe(ctx context.Context, binary, path string) (ClipInfo, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return ClipInfo{}, errors.New("media probe: empty path")
	}

	info := ClipInfo{Timestamp: fileTimestamp(path)}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return info, fmt.Errorf("media probe: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return info, fmt.Errorf("media probe: parse output: %w", err)
	}

	info.LengthSeconds = durationSeconds(result)
	return info, nil
}

// durationSeconds prefers the container duration and falls back to the
// longest stream when the container does not report one.
func durationSeconds(result probeResult) float64 {
	if seconds := parseSeconds(result.Format.Duration); seconds > 0 {
		return seconds
	}
	longest := 0.0
	for _, stream := range result.Streams {
		if seconds := parseSeconds(stream.Duration); seconds > longest {
			longest = seconds
		}
	}
	return longest
}

func parseSeconds(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}

func fileTimestamp(path string) string {
	stat, err := os.Stat(path)
	if err != nil {
		return time.Now().Format(time.RFC3339)
	}
	return stat.ModTime().Format(time.RFC3339)
}
