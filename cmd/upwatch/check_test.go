package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/petra-dev/upwatch/internal/checker"
)

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExecuteChecks_AllUp_OutputFormat(t *testing.T) {
	srv := jsonServer(t, `{"ok":true}`)

	var buf bytes.Buffer
	err := executeChecks(&buf, checker.New(2*time.Second), []namedCheck{
		{
			Name: "myapi",
			Request: checker.CheckRequest{
				Mode:           checker.ModeStructuredAPI,
				URL:            srv.URL,
				ExtractionPath: "ok",
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"SERVICE", "myapi", "structured-api", "up", "true"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestExecuteChecks_DownReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := executeChecks(&buf, checker.New(2*time.Second), []namedCheck{
		{
			Name: "broken",
			Request: checker.CheckRequest{
				Mode: checker.ModeStructuredAPI,
				URL:  srv.URL,
			},
		},
	})
	if err == nil {
		t.Fatal("expected an error when a service is down")
	}
	if !strings.Contains(buf.String(), "down") {
		t.Errorf("expected table to show 'down', got:\n%s", buf.String())
	}
}

func TestExecuteChecks_MultipleServices(t *testing.T) {
	up := jsonServer(t, `{"ok":true}`)
	down := jsonServer(t, `{"ok":false}`)

	var buf bytes.Buffer
	err := executeChecks(&buf, checker.New(2*time.Second), []namedCheck{
		{Name: "good", Request: checker.CheckRequest{Mode: checker.ModeStructuredAPI, URL: up.URL, ExtractionPath: "ok"}},
		{Name: "bad", Request: checker.CheckRequest{Mode: checker.ModeStructuredAPI, URL: down.URL, ExtractionPath: "ok"}},
	})
	if err == nil {
		t.Fatal("expected an error when any service is down")
	}

	output := buf.String()
	if !strings.Contains(output, "good") || !strings.Contains(output, "bad") {
		t.Errorf("expected both services in output, got:\n%s", output)
	}
}
