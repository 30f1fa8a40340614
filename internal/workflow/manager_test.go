package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docket/internal/config"
	"docket/internal/ledger"
	"docket/internal/naming"
	"docket/internal/organizer"
	"docket/internal/retryqueue"
	"docket/internal/services"
	"docket/internal/services/pdftext"
	"docket/internal/testsupport"
	"docket/internal/translate"
	"docket/internal/workflow"
)

type stubExtractor struct {
	meta naming.Metadata
	err  error
}

func (s *stubExtractor) Extract(context.Context, string) (naming.Metadata, error) {
	return s.meta, s.err
}

type stubTranslator struct {
	filename string
	text     string
	err      error
}

func (s *stubTranslator) Translate(context.Context, string) (translate.Result, error) {
	if s.err != nil {
		return translate.Result{}, s.err
	}
	return translate.Result{Text: s.text, Provider: "stub"}, nil
}

func (s *stubTranslator) TranslateFilename(context.Context, string) (translate.Result, error) {
	if s.err != nil {
		return translate.Result{}, s.err
	}
	return translate.Result{Text: s.filename, Provider: "libre", Chars: 8}, nil
}

type fixture struct {
	cfg   *config.Config
	queue *retryqueue.Store
	led   *ledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(2))
	queue, err := retryqueue.Open(cfg.Paths.StateDir, cfg.Retry.MaxAttempts, 24*time.Hour)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	led, err := ledger.Open(cfg.Paths.StateDir)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return &fixture{cfg: cfg, queue: queue, led: led}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	testsupport.WriteDocument(t, f.cfg.Paths.InboxDir, name, content)
}

func textConverter(text string) organizer.Converter {
	return func(string) (pdftext.Result, error) {
		return pdftext.Result{Text: text, Pages: 1}, nil
	}
}

func validMeta() naming.Metadata {
	return naming.Metadata{
		ContractID:    "C1",
		ContractType:  "SoW",
		Supplier:      "GyanSys",
		EffectiveDate: "2024-04-01",
		Confidence:    0.9,
	}
}

func TestRunProcessesBatchAndWritesArtifacts(t *testing.T) {
	f := newFixture(t)
	f.write(t, "gyansys sow.pdf", "body one")
	f.write(t, "御見積書.pdf", "body two")

	translator := &stubTranslator{filename: "Quotation", text: "GyanSys"}
	org := organizer.New(f.cfg, textConverter("text"), &stubExtractor{meta: validMeta()},
		translator, f.queue, f.led, nil)
	mgr := workflow.New(f.cfg, org, f.queue, translator, nil, nil)

	stats, err := mgr.Run(context.Background(), f.cfg.Paths.InboxDir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Processed != 2 || stats.Renamed != 1 || stats.Translated != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Failed != 0 {
		t.Fatalf("unexpected failures: %+v", stats.Failures)
	}

	summary := filepath.Join(f.cfg.Paths.SummaryDir, "processing_summary.txt")
	data, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	if !strings.Contains(string(data), "Documents processed: 2") {
		t.Fatalf("summary content:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(f.cfg.Paths.ProcessedDir, "README.md")); err != nil {
		t.Fatalf("readme missing: %v", err)
	}

	entries, err := f.led.Read()
	if err != nil || len(entries) != 2 {
		t.Fatalf("ledger entries = %d, err = %v", len(entries), err)
	}
}

func TestRunIsolatesDocumentFailures(t *testing.T) {
	f := newFixture(t)
	f.write(t, "good.pdf", "body one")
	f.write(t, "難解.pdf", "body two")

	exhausted := services.Wrap(services.ErrTranslationExhausted, "translate", "chain", "all tiers failed", nil)
	translator := &stubTranslator{err: exhausted}
	org := organizer.New(f.cfg, textConverter("text"), &stubExtractor{meta: validMeta()},
		translator, f.queue, f.led, nil)
	mgr := workflow.New(f.cfg, org, f.queue, nil, nil, nil)

	stats, err := mgr.Run(context.Background(), f.cfg.Paths.InboxDir)
	if err != nil {
		t.Fatalf("per-document failure must not abort the run: %v", err)
	}
	if stats.Processed != 1 || stats.Failed != 1 || stats.Queued != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats.Failures) != 1 || stats.Failures[0].Name != "難解.pdf" {
		t.Fatalf("failures = %+v", stats.Failures)
	}
	// The good document was still filed.
	dest := filepath.Join(f.cfg.Paths.ProcessedDir, "GyanSys", "GyanSys_SoW_2024_2999_C1.pdf")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("good document not filed: %v", err)
	}
}

func TestRunRetriesEligibleQueueEntries(t *testing.T) {
	f := newFixture(t)

	// Seed a request whose backoff elapsed long ago.
	past := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := f.queue.Enqueue("未知語彙", "en", "provider down", past); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	translator := &stubTranslator{text: "Unknown_Vocabulary", filename: "Unknown_Vocabulary"}
	org := organizer.New(f.cfg, textConverter("text"), &stubExtractor{meta: validMeta()},
		translator, f.queue, f.led, nil)
	mgr := workflow.New(f.cfg, org, f.queue, translator, nil, nil)

	stats, err := mgr.Run(context.Background(), f.cfg.Paths.InboxDir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Retried != 1 {
		t.Fatalf("Retried = %d, want 1", stats.Retried)
	}
	now := time.Now().UTC()
	summary := f.queue.Summarize(now)
	if summary.Success != 1 {
		t.Fatalf("queue summary = %+v, want one success", summary)
	}
}

func TestRunEmptyInbox(t *testing.T) {
	f := newFixture(t)
	org := organizer.New(f.cfg, textConverter("text"), &stubExtractor{meta: validMeta()},
		&stubTranslator{}, f.queue, f.led, nil)
	mgr := workflow.New(f.cfg, org, f.queue, nil, nil, nil)

	stats, err := mgr.Run(context.Background(), f.cfg.Paths.InboxDir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Processed != 0 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}
