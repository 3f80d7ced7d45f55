package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/kagelump/vlog/internal/api"
	"github.com/kagelump/vlog/internal/catalog"
	"github.com/kagelump/vlog/internal/ingest"
	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/testsupport"
)

func startTestAPI(t *testing.T) (*Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("mkdir watch dir: %v", err)
	}
	cat := testsupport.MustOpenCatalog(t, cfg)
	if err := cat.Upsert(context.Background(), &catalog.Record{
		Filename:         "clip.mp4",
		ShortDescription: "park walk",
		Rating:           4,
		Keep:             true,
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	svc := ingest.NewService(cfg, cat, func(context.Context, ingest.Batch) {}, logging.NewNop())
	d, err := New(cfg, cat, svc, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	addr := d.api.addr()
	if addr == "" {
		t.Fatal("api server did not bind")
	}
	return d, "http://" + addr
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestAPIStatus(t *testing.T) {
	_, base := startTestAPI(t)

	var status api.DaemonStatus
	if code := getJSON(t, base+"/api/status", &status); code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", code)
	}
	if !status.Running || !status.Ingest.Running {
		t.Fatalf("unexpected payload: %+v", status)
	}
}

func TestAPICatalogEndpoints(t *testing.T) {
	_, base := startTestAPI(t)

	var list struct {
		Records []api.CatalogRecord `json:"records"`
	}
	if code := getJSON(t, base+"/api/catalog", &list); code != http.StatusOK {
		t.Fatalf("list status: %d", code)
	}
	if len(list.Records) != 1 || list.Records[0].Filename != "clip.mp4" {
		t.Fatalf("unexpected listing: %+v", list.Records)
	}

	var rec api.CatalogRecord
	if code := getJSON(t, base+"/api/catalog/clip.mp4", &rec); code != http.StatusOK {
		t.Fatalf("get status: %d", code)
	}
	if rec.ShortDescription != "park walk" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if code := getJSON(t, base+"/api/catalog/missing.mp4", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing record, got %d", code)
	}

	var stats api.CatalogStats
	if code := getJSON(t, base+"/api/catalog/stats", &stats); code != http.StatusOK {
		t.Fatalf("stats status: %d", code)
	}
	if stats.Total != 1 || stats.Kept != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAPICatalogRemove(t *testing.T) {
	_, base := startTestAPI(t)

	req, err := http.NewRequest(http.MethodDelete, base+"/api/catalog/clip.mp4", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}

	if code := getJSON(t, base+"/api/catalog/clip.mp4", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after removal, got %d", code)
	}
}

func TestAPICatalogKeep(t *testing.T) {
	d, base := startTestAPI(t)

	resp, err := http.Post(base+"/api/catalog/clip.mp4/keep", "application/json",
		strings.NewReader(`{"keep": false}`))
	if err != nil {
		t.Fatalf("post keep: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("keep status: %d", resp.StatusCode)
	}

	rec, err := d.GetRecord(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Keep {
		t.Fatal("keep flag not cleared")
	}
}

func TestAPIMetricsExposed(t *testing.T) {
	_, base := startTestAPI(t)
	if code := getJSON(t, base+"/metrics", nil); code != http.StatusOK {
		t.Fatalf("metrics status: %d", code)
	}
}

func TestAPIHealthz(t *testing.T) {
	_, base := startTestAPI(t)
	var health map[string]string
	if code := getJSON(t, base+"/healthz", &health); code != http.StatusOK {
		t.Fatalf("healthz status: %d", code)
	}
	if health["status"] != "ok" {
		t.Fatalf("unexpected healthz payload: %v", health)
	}
}
