package report_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docket/internal/ledger"
	"docket/internal/report"
	"docket/internal/retryqueue"
)

func TestStatsAccumulation(t *testing.T) {
	now := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	stats := report.NewStats(now)
	stats.AddSuccess(ledger.OpRename, "GyanSys", "SoW", 0, false)
	stats.AddSuccess(ledger.OpTranslate, "GyanSys", "Quotation", 11, true)
	stats.AddFailure("bad.pdf", errors.New("no metadata"), false)
	stats.AddFailure("worse.pdf", errors.New("exhausted"), true)
	stats.Finished = now.Add(90 * time.Second)

	if stats.Processed != 2 || stats.Renamed != 1 || stats.Translated != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Degraded != 1 || stats.TranslatedChars != 11 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Failed != 2 || stats.Queued != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.BySupplier["GyanSys"] != 2 {
		t.Fatalf("BySupplier = %v", stats.BySupplier)
	}
	if stats.Duration() != 90*time.Second {
		t.Fatalf("Duration = %v", stats.Duration())
	}
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	stats := report.NewStats(now)
	stats.AddSuccess(ledger.OpTranslate, "GyanSys", "Quotation", 24, false)
	stats.AddFailure("stuck.pdf", errors.New("translation exhausted"), true)
	stats.Finished = now.Add(time.Minute)

	path, err := report.WriteSummary(dir, stats, retryqueue.Summary{Failed: 1})
	if err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"Documents processed: 1",
		"translated:        1",
		"Translation chars:   24",
		"GyanSys",
		"stuck.pdf: translation exhausted",
		"1 failed",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("summary missing %q:\n%s", want, content)
		}
	}
}

func TestWriteReadme(t *testing.T) {
	dir := t.TempDir()
	if err := report.WriteReadme(dir, ".pdf"); err != nil {
		t.Fatalf("WriteReadme failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatalf("read readme: %v", err)
	}
	if !strings.Contains(string(data), "2999") {
		t.Fatal("readme missing sentinel year explanation")
	}
	// Refresh must not fail when the file already exists.
	if err := report.WriteReadme(dir, ".pdf"); err != nil {
		t.Fatalf("second WriteReadme failed: %v", err)
	}
}
