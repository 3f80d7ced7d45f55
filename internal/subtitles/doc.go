// Package subtitles parses, cleans, and reassembles SRT transcripts.
//
// Whisper-style transcription leaves two artifact classes this package
// removes: consecutive cues with identical text, and "hallucinated" cues
// where a single repeated phrase dominates the segment. Cleaned transcripts
// feed the description prompt as context.
package subtitles
