package retryqueue_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docket/internal/retryqueue"
	"docket/internal/translate"
)

type stubTranslator struct {
	result string
	err    error
	calls  int
}

func (t *stubTranslator) Translate(_ context.Context, text string) (translate.Result, error) {
	t.calls++
	if t.err != nil {
		return translate.Result{}, t.err
	}
	return translate.Result{Text: t.result, Provider: "stub"}, nil
}

func openStore(t *testing.T, stateDir string) *retryqueue.Store {
	t.Helper()
	store, err := retryqueue.Open(stateDir, 3, 24*time.Hour)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store
}

func TestEnqueueRecordsFirstFailure(t *testing.T) {
	store := openStore(t, t.TempDir())
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	req, err := store.Enqueue("未知語彙", "en", "translation exhausted", now)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if req.Status != retryqueue.StatusFailed {
		t.Fatalf("Status = %s, want failed", req.Status)
	}
	if req.AttemptCount != 1 {
		t.Fatalf("AttemptCount = %d, want 1", req.AttemptCount)
	}
	if want := now.Add(24 * time.Hour); !req.NextRetryAt.Equal(want) {
		t.Fatalf("NextRetryAt = %v, want %v", req.NextRetryAt, want)
	}
}

func TestEnqueueDeduplicatesActiveRequests(t *testing.T) {
	store := openStore(t, t.TempDir())
	now := time.Now().UTC()

	first, err := store.Enqueue("契約書", "en", "down", now)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	second, err := store.Enqueue("契約書", "en", "down again", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second Enqueue failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("duplicate active request enqueued")
	}
	if got := store.Summarize(now).Total(); got != 1 {
		t.Fatalf("Total = %d, want 1", got)
	}
}

func TestRetryReadyIsDerivedNotStored(t *testing.T) {
	store := openStore(t, t.TempDir())
	now := time.Now().UTC()

	req, err := store.Enqueue("請求書", "en", "down", now)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if retryqueue.EffectiveStatus(req, now) != retryqueue.StatusFailed {
		t.Fatal("request should not be retry ready before the delay elapses")
	}
	later := now.Add(25 * time.Hour)
	if retryqueue.EffectiveStatus(req, later) != retryqueue.StatusRetryReady {
		t.Fatal("request should be retry ready after the delay elapses")
	}

	ready := store.ByStatus(retryqueue.StatusRetryReady, later)
	if len(ready) != 1 {
		t.Fatalf("ByStatus(retry_ready) = %d entries, want 1", len(ready))
	}
	// The persisted status stays failed.
	if ready[0].Status != retryqueue.StatusFailed {
		t.Fatalf("persisted status = %s, want failed", ready[0].Status)
	}
}

func TestRetryAllSuccessIsTerminal(t *testing.T) {
	store := openStore(t, t.TempDir())
	now := time.Now().UTC()
	if _, err := store.Enqueue("御見積書", "en", "down", now); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	translator := &stubTranslator{result: "Quotation"}
	later := now.Add(25 * time.Hour)
	outcome, err := store.RetryAll(context.Background(), translator, later)
	if err != nil {
		t.Fatalf("RetryAll failed: %v", err)
	}
	if outcome.Attempted != 1 || outcome.Succeeded != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}

	reqs := store.ByStatus(retryqueue.StatusSuccess, later)
	if len(reqs) != 1 || reqs[0].Result != "Quotation" || reqs[0].AttemptCount != 2 {
		t.Fatalf("unexpected request after success: %+v", reqs)
	}

	// Terminal: a second pass never re-attempts.
	outcome, err = store.RetryAll(context.Background(), translator, later.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("second RetryAll failed: %v", err)
	}
	if outcome.Attempted != 0 || translator.calls != 1 {
		t.Fatalf("terminal request was re-attempted: outcome=%+v calls=%d", outcome, translator.calls)
	}
}

func TestRetryAllFailureReschedulesWithFixedDelay(t *testing.T) {
	store := openStore(t, t.TempDir())
	now := time.Now().UTC()
	if _, err := store.Enqueue("納品書", "en", "down", now); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	translator := &stubTranslator{err: errors.New("still down")}
	later := now.Add(25 * time.Hour)
	outcome, err := store.RetryAll(context.Background(), translator, later)
	if err != nil {
		t.Fatalf("RetryAll failed: %v", err)
	}
	if outcome.Failed != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}

	reqs := store.ByStatus(retryqueue.StatusFailed, later)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 failed request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.AttemptCount != 2 {
		t.Fatalf("AttemptCount = %d, want 2", req.AttemptCount)
	}
	if want := later.Add(24 * time.Hour); !req.NextRetryAt.Equal(want) {
		t.Fatalf("NextRetryAt = %v, want fixed delay %v", req.NextRetryAt, want)
	}
	if req.LastError != "still down" {
		t.Fatalf("LastError = %q", req.LastError)
	}
}

func TestRetryAllSkipsAfterMaxAttempts(t *testing.T) {
	store := openStore(t, t.TempDir())
	now := time.Now().UTC()
	if _, err := store.Enqueue("覚書", "en", "down", now); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	translator := &stubTranslator{err: errors.New("permanently down")}
	clock := now
	// Attempts 2 and 3 fail; attempt 3 hits the budget of 3 and skips.
	for range 2 {
		clock = clock.Add(25 * time.Hour)
		if _, err := store.RetryAll(context.Background(), translator, clock); err != nil {
			t.Fatalf("RetryAll failed: %v", err)
		}
	}

	skipped := store.ByStatus(retryqueue.StatusSkipped, clock)
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped request, summary=%+v", store.Summarize(clock))
	}
	if skipped[0].AttemptCount != 3 {
		t.Fatalf("AttemptCount = %d, want 3", skipped[0].AttemptCount)
	}

	// Skipped is terminal.
	outcome, err := store.RetryAll(context.Background(), translator, clock.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("RetryAll failed: %v", err)
	}
	if outcome.Attempted != 0 {
		t.Fatal("skipped request was re-attempted")
	}
}

func TestQueueSurvivesReopen(t *testing.T) {
	stateDir := t.TempDir()
	now := time.Now().UTC()

	store := openStore(t, stateDir)
	req, err := store.Enqueue("発注書", "en", "down", now)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	reopened := openStore(t, stateDir)
	got, err := reopened.Get(req.ID)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.OriginalText != "発注書" || got.Status != retryqueue.StatusFailed || got.AttemptCount != 1 {
		t.Fatalf("reloaded request %+v", got)
	}
}

func TestPartitionMarkersTrackEffectiveStatus(t *testing.T) {
	stateDir := t.TempDir()
	store := openStore(t, stateDir)
	now := time.Now().UTC()

	req, err := store.Enqueue("秘密保持契約書", "en", "down", now)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	marker := filepath.Join(stateDir, "queue", "failed", req.ID+".json")
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("expected failed marker: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, "queue", "retry_ready", req.ID+".json")); !os.IsNotExist(err) {
		t.Fatalf("unexpected retry_ready marker, err=%v", err)
	}
}

func TestClearTerminal(t *testing.T) {
	store := openStore(t, t.TempDir())
	now := time.Now().UTC()
	if _, err := store.Enqueue("one", "en", "down", now); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := store.Enqueue("two", "en", "down", now); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	translator := &stubTranslator{result: "done"}
	later := now.Add(25 * time.Hour)
	if _, err := store.RetryAll(context.Background(), translator, later); err != nil {
		t.Fatalf("RetryAll failed: %v", err)
	}

	removed, err := store.ClearTerminal(later)
	if err != nil {
		t.Fatalf("ClearTerminal failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if total := store.Summarize(later).Total(); total != 0 {
		t.Fatalf("Total after clear = %d, want 0", total)
	}
}
