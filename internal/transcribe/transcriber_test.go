package transcribe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/transcribe"
)

const rawSRT = `1
00:00:01,000 --> 00:00:02,000
Real dialogue line one.

2
00:00:02,000 --> 00:00:03,000
Real dialogue line two.

3
00:00:03,000 --> 00:00:04,000
Real dialogue line two.

4
00:00:04,000 --> 00:00:05,000
Real dialogue line three.
`

func testConfig() config.Transcription {
	return config.Transcription{
		Enabled:        true,
		Binary:         "mlx_whisper",
		Model:          "test-model",
		TimeoutSeconds: 5,
	}
}

func TestPreprocessWritesCleanedTranscript(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(videoPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	tr := transcribe.New(testConfig(), logging.NewNop())
	tr.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		if name != "mlx_whisper" {
			t.Fatalf("unexpected binary: %s", name)
		}
		// Whisper drops the SRT next to the video.
		return os.WriteFile(filepath.Join(dir, "clip.srt"), []byte(rawSRT), 0o644)
	})

	ok, cleaned := tr.Preprocess(context.Background(), videoPath)
	if !ok {
		t.Fatal("expected preprocessing to succeed")
	}
	if cleaned != filepath.Join(dir, "clip_cleaned.srt") {
		t.Fatalf("unexpected cleaned path: %s", cleaned)
	}
	data, err := os.ReadFile(cleaned)
	if err != nil {
		t.Fatalf("read cleaned srt: %v", err)
	}
	if strings.Count(string(data), "-->") != 2 {
		t.Fatalf("expected duplicate cue removed, got:\n%s", data)
	}
}

func TestPreprocessDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	tr := transcribe.New(cfg, logging.NewNop())
	if ok, path := tr.Preprocess(context.Background(), "/tmp/clip.mp4"); ok || path != "" {
		t.Fatalf("expected disabled transcriber to skip, got ok=%v path=%q", ok, path)
	}
}

func TestPreprocessWhisperFailureIsNotFatal(t *testing.T) {
	tr := transcribe.New(testConfig(), logging.NewNop())
	tr.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("model download failed")
	})
	if ok, _ := tr.Preprocess(context.Background(), filepath.Join(t.TempDir(), "clip.mp4")); ok {
		t.Fatal("expected failure to report ok=false")
	}
}

func TestPreprocessMissingOutputSRT(t *testing.T) {
	tr := transcribe.New(testConfig(), logging.NewNop())
	tr.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil // whisper "succeeds" but writes nothing
	})
	if ok, _ := tr.Preprocess(context.Background(), filepath.Join(t.TempDir(), "clip.mp4")); ok {
		t.Fatal("expected missing SRT to report ok=false")
	}
}
