package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/resilience/retry"
)

func testReport() *entity.RunReport {
	return &entity.RunReport{
		RunID:     "3f1c2a9e-run",
		StartedAt: time.Date(2025, 11, 15, 6, 0, 0, 0, time.UTC),
		Duration:  42 * time.Second,
		Charts: []entity.ChartResult{
			{Name: "fao_fpi_main", Tables: []string{"fao_fpi_main"}, Rows: 300, Duration: 1500 * time.Millisecond},
			{Name: "ipc_charts", Tables: []string{"ipc_phase_2", "ipc_phase_3"}, Rows: 32, Duration: 800 * time.Millisecond},
		},
	}
}

func testNotifier(url string) *SlackNotifier {
	n := NewSlackNotifier(SlackConfig{Enabled: true, WebhookURL: url, Timeout: 5 * time.Second})
	n.retry = retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Second, Multiplier: 2}
	return n
}

func TestSlackNotifier_buildBlockKitPayload(t *testing.T) {
	t.Run("TC-1: should summarize a successful run", func(t *testing.T) {
		n := testNotifier("https://hooks.slack.com/services/test")

		payload := n.buildBlockKitPayload(testReport())

		if payload.Text != "Chart update succeeded: 2 charts, 332 rows" {
			t.Errorf("unexpected fallback text %q", payload.Text)
		}
		if len(payload.Blocks) != 2 {
			t.Fatalf("expected 2 blocks, got %d", len(payload.Blocks))
		}
		section := payload.Blocks[0].Text.Text
		if !strings.Contains(section, "`fao_fpi_main` 300 rows in 1.5s") {
			t.Errorf("section does not list fao_fpi_main: %q", section)
		}
		ctxText := payload.Blocks[1].Elements[0].Text
		if !strings.Contains(ctxText, "3f1c2a9e-run") || !strings.Contains(ctxText, "2025-11-15T06:00:00Z") {
			t.Errorf("unexpected context text %q", ctxText)
		}
	})

	t.Run("TC-2: should report the failed chart with a sanitized error", func(t *testing.T) {
		n := testNotifier("https://hooks.slack.com/services/test")
		report := testReport()
		report.FailedChart = "ipc_charts"
		report.Err = errors.New("GET https://api.example.org/country?key=supersecret: 500")

		payload := n.buildBlockKitPayload(report)

		if payload.Text != "Chart update failed at ipc_charts" {
			t.Errorf("unexpected fallback text %q", payload.Text)
		}
		if strings.Contains(payload.Blocks[0].Text.Text, "supersecret") {
			t.Error("API key leaked into Slack message")
		}
	})

	t.Run("TC-3: should truncate long sections", func(t *testing.T) {
		n := testNotifier("https://hooks.slack.com/services/test")
		report := testReport()
		for i := 0; i < 200; i++ {
			report.Charts = append(report.Charts, entity.ChartResult{Name: strings.Repeat("x", 30)})
		}

		payload := n.buildBlockKitPayload(report)

		if got := len(payload.Blocks[0].Text.Text); got > maxSectionTextLength {
			t.Errorf("section length %d exceeds %d", got, maxSectionTextLength)
		}
	})
}

func TestSlackNotifier_NotifyRun(t *testing.T) {
	t.Run("TC-1: should post Block Kit JSON", func(t *testing.T) {
		var got SlackWebhookPayload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		err := testNotifier(srv.URL).NotifyRun(context.Background(), testReport())

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got.Blocks) != 2 {
			t.Errorf("expected 2 blocks, got %d", len(got.Blocks))
		}
	})

	t.Run("TC-2: should retry server errors once", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		err := testNotifier(srv.URL).NotifyRun(context.Background(), testReport())

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 2 {
			t.Errorf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("TC-3: should not retry client errors", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("no_service"))
		}))
		defer srv.Close()

		err := testNotifier(srv.URL).NotifyRun(context.Background(), testReport())

		var httpErr *retry.HTTPError
		if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
			t.Fatalf("expected HTTP 404 error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("TC-4: should honor Retry-After on 429", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		start := time.Now()
		err := testNotifier(srv.URL).NotifyRun(context.Background(), testReport())

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if elapsed := time.Since(start); elapsed < time.Second {
			t.Errorf("expected to wait for Retry-After, elapsed %v", elapsed)
		}
	})
}

func TestExtractRetryAfter(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	if got := extractRetryAfter(resp, []byte(`{"retry_after": 2.5}`)); got != 2500*time.Millisecond {
		t.Errorf("expected 2.5s from body, got %v", got)
	}
	if got := extractRetryAfter(resp, nil); got != defaultRetryAfter {
		t.Errorf("expected default, got %v", got)
	}
	resp.Header.Set("Retry-After", "3")
	if got := extractRetryAfter(resp, nil); got != 3*time.Second {
		t.Errorf("expected 3s from header, got %v", got)
	}
	if got := extractRetryAfter(&http.Response{StatusCode: http.StatusBadGateway, Header: resp.Header}, nil); got != 0 {
		t.Errorf("expected no hint outside 429, got %v", got)
	}
}
