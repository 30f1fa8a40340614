package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docket/internal/config"
	"docket/internal/notifications"
)

func TestNoopWhenTopicUnset(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunCompleted(context.Background(), 3, 0, time.Minute); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestRunCompletedSendsToNtfy(t *testing.T) {
	var gotTitle, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunSummary = true
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunCompleted(context.Background(), 5, 1, 90*time.Second); err != nil {
		t.Fatalf("NotifyRunCompleted failed: %v", err)
	}
	if gotTitle != "Docket - Run Complete (with errors)" {
		t.Fatalf("Title = %q", gotTitle)
	}
	if gotBody != "Run complete: 5 succeeded, 1 failed in 1m30s" {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestDisabledFlagsSuppressSends(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls++
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunSummary = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRunStarted(context.Background(), 2); err != nil {
		t.Fatalf("NotifyRunStarted failed: %v", err)
	}
	if err := svc.NotifyError(context.Background(), io.EOF, "translation"); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no sends, got %d", calls)
	}
}
