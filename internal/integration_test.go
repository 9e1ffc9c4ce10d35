package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/petra-dev/upwatch/internal/checker"
	"github.com/petra-dev/upwatch/internal/registry"
	"github.com/petra-dev/upwatch/internal/scheduler"
	"github.com/petra-dev/upwatch/internal/server"
	"github.com/petra-dev/upwatch/internal/storage"
)

// TestIntegration_FullFlow verifies the complete pipeline:
// registry → refresher → evaluator → storage → API.
func TestIntegration_FullFlow(t *testing.T) {
	// 1. Start fake targets: a healthy JSON API and a status page.
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":{"isOperational":true}}`))
	}))
	defer api.Close()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><div class="status">Operational</div></body></html>`))
	}))
	defer page.Close()

	// 2. Open in-memory SQLite registry.
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	defer db.Close()

	// 3. Register both services.
	ctx := context.Background()
	expectTrue := "true"
	expectOperational := "operational"
	services := []*registry.Service{
		{
			Name:           "json-api",
			Mode:           checker.ModeStructuredAPI,
			URL:            api.URL,
			ExtractionPath: "status.isOperational",
			ExpectedValue:  &expectTrue,
		},
		{
			Name:          "status-page",
			Mode:          checker.ModeMarkupPage,
			URL:           page.URL,
			Selector:      ".status",
			ExpectedValue: &expectOperational,
		},
	}
	for _, svc := range services {
		if err := db.Add(ctx, svc); err != nil {
			t.Fatalf("adding %q: %v", svc.Name, err)
		}
	}

	// 4. Run one sequential refresh pass.
	eval := checker.New(2 * time.Second)
	refresher := scheduler.New(db, eval, 0, 2*time.Second, nil)
	refresher.RefreshAll(ctx)

	// 5. Read the statuses back through the API.
	srv := server.New(db, eval, refresher, nil, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/services")
	if err != nil {
		t.Fatalf("GET /api/services: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var list []registry.Service
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 services, got %d", len(list))
	}
	for _, svc := range list {
		if svc.Status != checker.StatusUp {
			t.Errorf("service %q: expected up, got %q", svc.Name, svc.Status)
		}
		if svc.LastChecked == nil {
			t.Errorf("service %q: expected LastChecked to be set", svc.Name)
		}
	}

	// 6. An ad-hoc check through the API sees the same result.
	body := fmt.Sprintf(`{"mode":"structured-api","url":%q,"extractionPath":"status.isOperational","expectedValue":"true"}`,
		api.URL)
	checkResp, err := http.Post(ts.URL+"/api/check", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/check: %v", err)
	}
	defer checkResp.Body.Close()
	if checkResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", checkResp.StatusCode)
	}
	var result checker.CheckResult
	if err := json.NewDecoder(checkResp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding check result: %v", err)
	}
	if result.Status != checker.StatusUp {
		t.Fatalf("ad-hoc check: expected up, got %q (%s)", result.Status, result.Error)
	}
}
