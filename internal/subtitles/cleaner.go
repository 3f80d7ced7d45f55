package subtitles

import (
	"regexp"
	"strings"
)

const (
	// wordRepetitionThreshold flags space-separated text when one word bigram
	// dominates the cue.
	wordRepetitionThreshold = 0.65
	// cjkRepetitionThreshold is lower because cyclic repetition in unspaced
	// text splits its frequency count across several character bigrams.
	cjkRepetitionThreshold = 0.25
	// minTokens is the minimum token count before the repetition check applies.
	minTokens = 5
)

var punctuation = regexp.MustCompile(`[.,;!?]`)

// CleanStats reports the effects of subtitle cleanup operations.
type CleanStats struct {
	RemovedCues int
}

// Clean removes transcription artifacts from cues: consecutive duplicate
// text, cues flagged as repetition hallucinations, and any later occurrence
// of text that was already removed. A result of a single surviving cue is
// treated as noise and dropped entirely.
func Clean(cues []Cue) ([]Cue, CleanStats) {
	var stats CleanStats
	removed := make(map[string]struct{})

	pass1 := make([]Cue, 0, len(cues))
	for _, cue := range cues {
		lastText := ""
		if len(pass1) > 0 {
			lastText = pass1[len(pass1)-1].Text
		}
		text := strings.TrimSpace(cue.Text)
		if text == strings.TrimSpace(lastText) || isHallucination(text) {
			removed[cue.Text] = struct{}{}
			stats.RemovedCues++
			continue
		}
		pass1 = append(pass1, cue)
	}

	result := make([]Cue, 0, len(pass1))
	for _, cue := range pass1 {
		if _, ok := removed[cue.Text]; ok {
			stats.RemovedCues++
			continue
		}
		result = append(result, cue)
	}

	if len(result) == 1 {
		stats.RemovedCues++
		return nil, stats
	}
	return result, stats
}

// CleanSRT parses, cleans, and reassembles raw SRT content.
func CleanSRT(raw []byte) ([]byte, CleanStats) {
	cues, stats := Clean(ParseSRT(raw))
	return ReassembleSRT(cues), stats
}

// isHallucination detects likely ASR hallucination by measuring how much a
// single bigram dominates the cue text.
func isHallucination(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(punctuation.ReplaceAllString(text, "")))
	words := strings.Fields(normalized)

	tokens := words
	threshold := wordRepetitionThreshold
	joiner := " "

	// Unspaced text with too few word tokens: fall back to character bigrams.
	if len(words) < minTokens && len([]rune(normalized)) >= minTokens {
		runes := []rune(normalized)
		tokens = make([]string, len(runes))
		for i, r := range runes {
			tokens[i] = string(r)
		}
		threshold = cjkRepetitionThreshold
		joiner = ""
	}

	if len(tokens) < 2 {
		return false
	}

	counts := make(map[string]int, len(tokens))
	total := 0
	mostCommon := 0
	for i := 0; i+1 < len(tokens); i++ {
		bigram := tokens[i] + joiner + tokens[i+1]
		counts[bigram]++
		if counts[bigram] > mostCommon {
			mostCommon = counts[bigram]
		}
		total++
	}
	if total == 0 {
		return false
	}
	return float64(mostCommon)/float64(total) >= threshold
}
