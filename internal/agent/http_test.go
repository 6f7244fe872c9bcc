package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/uatlabs/widgetuat/internal/config"
)

var testTask = Task{
	Instructions: "Navigate to the demo page and click the widget button",
	Viewport:     config.Viewport{Width: 1920, Height: 1080},
	Model:        "test-model",
}

// TestHTTPAgentExecute tests task delegation over HTTP.
func TestHTTPAgentExecute(t *testing.T) {
	t.Parallel()

	t.Run("successful task returns the transcript", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tasks" {
				t.Errorf("path = %q, expected /tasks", r.URL.Path)
			}

			var task Task
			if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
				t.Fatalf("bad task body: %v", err)
			}
			if task.Viewport.Width != 1920 || task.Model != "test-model" {
				t.Errorf("task = %+v", task)
			}

			_ = json.NewEncoder(w).Encode(taskResponse{
				Success: true,
				Result:  "Clicked the button. Modal opened with 4 feedback types.",
			})
		}))
		defer srv.Close()

		a := NewHTTPAgent(srv.URL)
		transcript, err := a.Execute(context.Background(), testTask)
		if err != nil {
			t.Fatalf("Execute() error: %v", err)
		}
		if !strings.Contains(transcript, "Modal opened") {
			t.Errorf("transcript = %q", transcript)
		}
	})

	t.Run("service-reported failure surfaces the agent error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(taskResponse{
				Success: false,
				Result:  "Page did not load",
				Error:   "navigation timeout",
			})
		}))
		defer srv.Close()

		a := NewHTTPAgent(srv.URL)
		transcript, err := a.Execute(context.Background(), testTask)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "navigation timeout") {
			t.Errorf("error = %v", err)
		}
		// Partial transcript still comes back for the report.
		if transcript != "Page did not load" {
			t.Errorf("transcript = %q", transcript)
		}
	})

	t.Run("non-200 status is an error with truncated body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "out of browser sessions", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		a := NewHTTPAgent(srv.URL)
		if _, err := a.Execute(context.Background(), testTask); err == nil ||
			!strings.Contains(err.Error(), "status 503") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("unreachable service carries a run hint", func(t *testing.T) {
		t.Parallel()

		// Port 1 is never listening.
		a := NewHTTPAgent("http://127.0.0.1:1")
		_, err := a.Execute(context.Background(), testTask)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "browser-agent service running") {
			t.Errorf("error = %v, expected run hint", err)
		}
	})

	t.Run("empty base URL returns ErrNoAgentURL", func(t *testing.T) {
		t.Parallel()

		a := NewHTTPAgent("")
		if _, err := a.Execute(context.Background(), testTask); !errors.Is(err, ErrNoAgentURL) {
			t.Errorf("error = %v, expected ErrNoAgentURL", err)
		}
	})
}
