package describe_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/describe"
	"github.com/kagelump/vlog/internal/services"
)

func testConfig(baseURL string) config.Describe {
	cfg := config.Default().Describe
	cfg.BaseURL = baseURL
	cfg.TimeoutSeconds = 5
	return cfg
}

func TestSamplingFPS(t *testing.T) {
	cases := []struct {
		name    string
		base    float64
		length  float64
		want    float64
	}{
		{"short clip keeps base rate", 1.0, 45, 1.0},
		{"boundary stays at base rate", 1.0, 120, 1.0},
		{"medium clip halves", 1.0, 180, 0.5},
		{"long clip scales twice", 1.0, 600, 0.125},
		{"zero base falls back to one", 0, 45, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := describe.SamplingFPS(tc.base, tc.length); got != tc.want {
				t.Fatalf("SamplingFPS(%v, %v) = %v, want %v", tc.base, tc.length, got, tc.want)
			}
		})
	}
}

func TestDescribeFileSendsRequest(t *testing.T) {
	var captured describe.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/describe" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(describe.Response{
			Filename:         captured.Filename,
			DescriptionLong:  "a person walks through a park",
			DescriptionShort: "park walk",
			PrimaryShotType:  "wide",
			Tags:             []string{"outdoor", "walking"},
			Rating:           3.5,
		})
	}))
	defer server.Close()

	client := describe.NewClient(testConfig(server.URL))
	resp, err := client.DescribeFile(context.Background(), "/videos/clip.mp4", 200)
	if err != nil {
		t.Fatalf("DescribeFile: %v", err)
	}
	if captured.Filename != "/videos/clip.mp4" {
		t.Fatalf("unexpected filename: %q", captured.Filename)
	}
	if captured.FPS != 0.5 {
		t.Fatalf("expected scaled fps 0.5, got %v", captured.FPS)
	}
	if captured.MaxPixels != 224*224 {
		t.Fatalf("unexpected max_pixels: %d", captured.MaxPixels)
	}
	if resp.DescriptionShort != "park walk" || resp.Rating != 3.5 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDescribeBusyDaemon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": "busy processing other.mp4"})
	}))
	defer server.Close()

	client := describe.NewClient(testConfig(server.URL))
	_, err := client.Describe(context.Background(), describe.Request{Filename: "/videos/clip.mp4"})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDescribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := describe.NewClient(testConfig(server.URL))
	_, err := client.Describe(context.Background(), describe.Request{Filename: "/videos/clip.mp4"})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestDescribeUnreachableDaemon(t *testing.T) {
	client := describe.NewClient(testConfig("http://127.0.0.1:1"))
	_, err := client.Describe(context.Background(), describe.Request{Filename: "/videos/clip.mp4"})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestDescribeRequiresFilename(t *testing.T) {
	client := describe.NewClient(testConfig("http://127.0.0.1:5555"))
	if _, err := client.Describe(context.Background(), describe.Request{}); err == nil {
		t.Fatal("expected error for missing filename")
	}
}

func TestHealthAndStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			json.NewEncoder(w).Encode(describe.Health{Status: "healthy", ModelLoaded: true, ModelName: "test-model"})
		case "/status":
			json.NewEncoder(w).Encode(describe.DaemonStatus{Status: "healthy", Busy: true, CurrentFile: "clip.mp4", TotalProcessed: 7})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := describe.NewClient(testConfig(server.URL))
	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !health.ModelLoaded || health.ModelName != "test-model" {
		t.Fatalf("unexpected health: %+v", health)
	}
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Busy || status.TotalProcessed != 7 {
		t.Fatalf("unexpected status: %+v", status)
	}
}
