package subtitles

import (
	"strconv"
	"strings"
)

// Cue is one subtitle block: timing line plus text.
type Cue struct {
	Timing string
	Text   string
}

// ParseSRT splits raw SRT content into cues. Index lines are discarded;
// ReassembleSRT renumbers sequentially.
func ParseSRT(raw []byte) []Cue {
	normalized := strings.ReplaceAll(string(raw), "\r\n", "\n")
	blocks := splitBlocks(normalized)
	cues := make([]Cue, 0, len(blocks))
	for _, block := range blocks {
		lines := strings.Split(block, "\n")
		start := 0
		if start < len(lines) && isNumeric(lines[start]) {
			start++
		}
		var timing string
		if start < len(lines) && strings.Contains(lines[start], "-->") {
			timing = strings.TrimSpace(lines[start])
			start++
		}
		if timing == "" {
			continue
		}
		text := make([]string, 0, len(lines)-start)
		for _, line := range lines[start:] {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				text = append(text, trimmed)
			}
		}
		cues = append(cues, Cue{Timing: timing, Text: strings.Join(text, "\n")})
	}
	return cues
}

// ReassembleSRT formats cues back into SRT, renumbering from 1 and skipping
// empty cues.
func ReassembleSRT(cues []Cue) []byte {
	var b strings.Builder
	index := 1
	for _, cue := range cues {
		if strings.TrimSpace(cue.Text) == "" {
			continue
		}
		if index > 1 {
			b.WriteString("\n")
		}
		b.WriteString(strconv.Itoa(index))
		b.WriteByte('\n')
		b.WriteString(cue.Timing)
		b.WriteByte('\n')
		b.WriteString(cue.Text)
		b.WriteByte('\n')
		index++
	}
	return []byte(b.String())
}

func splitBlocks(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n\n")
}

func isNumeric(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	_, err := strconv.Atoi(value)
	return err == nil
}
