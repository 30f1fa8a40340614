package ledger_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docket/internal/fileutil"
	"docket/internal/ledger"
	"docket/internal/services"
)

func openLedger(t *testing.T, stateDir string) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(stateDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return l
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	hash, err := fileutil.HashFile(path)
	if err != nil {
		t.Fatalf("hash %s: %v", path, err)
	}
	return hash
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	l := openLedger(t, t.TempDir())
	entry, err := l.Record(ledger.Entry{
		Op:           ledger.OpRename,
		OriginalPath: "/in/a.pdf",
		NewPath:      "/out/a.pdf",
		ContentHash:  "abc",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if entry.ID == "" || entry.Timestamp.IsZero() {
		t.Fatalf("entry missing identity: %+v", entry)
	}

	entries, err := l.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != entry.ID {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestReadEmptyLedger(t *testing.T) {
	l := openLedger(t, t.TempDir())
	entries, err := l.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(entries))
	}
}

func TestReverse(t *testing.T) {
	rename := ledger.Entry{Op: ledger.OpRename, OriginalPath: "/in/a.pdf", NewPath: "/out/a.pdf"}
	inv, err := ledger.Reverse(rename)
	if err != nil {
		t.Fatalf("Reverse failed: %v", err)
	}
	if inv.From != "/out/a.pdf" || inv.To != "/in/a.pdf" || inv.Remove {
		t.Fatalf("unexpected inverse %+v", inv)
	}

	translate := ledger.Entry{Op: ledger.OpTranslate, OriginalPath: "/in/b.pdf", NewPath: "/out/b.pdf"}
	inv, err = ledger.Reverse(translate)
	if err != nil {
		t.Fatalf("Reverse failed: %v", err)
	}
	if !inv.Remove || inv.From != "/out/b.pdf" {
		t.Fatalf("unexpected inverse %+v", inv)
	}

	if _, err := ledger.Reverse(ledger.Entry{Op: "bogus"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUndoRenameRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, filepath.Join(dir, "state"))
	src := filepath.Join(dir, "inbox", "contract.pdf")
	dst := filepath.Join(dir, "processed", "ACME", "ACME_SoW_2024_2999_C1.pdf")
	hash := writeFile(t, src, "contract body")

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fileutil.MoveFile(src, dst); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := l.Record(ledger.Entry{
		Op: ledger.OpRename, OriginalPath: src, NewPath: dst, ContentHash: hash,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	plan, err := l.PlanUndo(ledger.Filter{})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	if len(plan) != 1 {
		t.Fatalf("plan size = %d, want 1", len(plan))
	}
	if err := l.Apply(plan[0]); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	restored, err := fileutil.HashFile(src)
	if err != nil {
		t.Fatalf("file not restored: %v", err)
	}
	if restored != hash {
		t.Fatalf("restored hash %s, want %s", restored, hash)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("destination still present, err=%v", err)
	}
}

func TestUndoTranslateRemovesCopyOnly(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, filepath.Join(dir, "state"))
	src := filepath.Join(dir, "inbox", "御見積書.pdf")
	dst := filepath.Join(dir, "processed", "ACME", "Quotation.pdf")
	writeFile(t, src, "quotation body")

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	hash, err := fileutil.CopyFileVerified(src, dst)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if _, err := l.Record(ledger.Entry{
		Op: ledger.OpTranslate, OriginalPath: src, NewPath: dst, ContentHash: hash,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	plan, err := l.PlanUndo(ledger.Filter{})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	if err := l.Apply(plan[0]); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("copy still present, err=%v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("original must survive translate undo: %v", err)
	}
}

func TestUndoRefusesOnHashDrift(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, filepath.Join(dir, "state"))
	dst := filepath.Join(dir, "processed", "a.pdf")
	hash := writeFile(t, dst, "original content")

	if _, err := l.Record(ledger.Entry{
		Op: ledger.OpRename, OriginalPath: filepath.Join(dir, "inbox", "a.pdf"),
		NewPath: dst, ContentHash: hash,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Out-of-band edit after the ledger entry was written.
	writeFile(t, dst, "tampered content")

	plan, err := l.PlanUndo(ledger.Filter{})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	err = l.Apply(plan[0])
	if !errors.Is(err, services.ErrIntegrityMismatch) {
		t.Fatalf("expected ErrIntegrityMismatch, got %v", err)
	}
	if _, statErr := os.Stat(dst); statErr != nil {
		t.Fatalf("tampered file must be left in place: %v", statErr)
	}
}

func TestPlanUndoOrdersNewestFirstAndSkipsReversed(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, filepath.Join(dir, "state"))
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	first, err := l.Record(ledger.Entry{
		Op: ledger.OpRename, OriginalPath: "/in/1.pdf", NewPath: "/out/1.pdf",
		ContentHash: "h1", Timestamp: base,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	second, err := l.Record(ledger.Entry{
		Op: ledger.OpRename, OriginalPath: "/in/2.pdf", NewPath: "/out/2.pdf",
		ContentHash: "h2", Timestamp: base.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	plan, err := l.PlanUndo(ledger.Filter{})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	if len(plan) != 2 || plan[0].Source.ID != second.ID || plan[1].Source.ID != first.ID {
		t.Fatalf("plan not newest-first: %+v", plan)
	}

	// Mark the second entry as already reversed; it must drop out of the plan.
	if _, err := l.Record(ledger.Entry{
		Op: ledger.OpRename, OriginalPath: "/out/2.pdf", NewPath: "/in/2.pdf",
		ContentHash: "h2", Reversal: true, ReversalOf: second.ID,
	}); err != nil {
		t.Fatalf("Record reversal failed: %v", err)
	}
	plan, err = l.PlanUndo(ledger.Filter{})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	if len(plan) != 1 || plan[0].Source.ID != first.ID {
		t.Fatalf("reversed entry still planned: %+v", plan)
	}
}

func TestPlanUndoFilters(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, filepath.Join(dir, "state"))
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	for i, path := range []string{"/in/1.pdf", "/in/2.pdf", "/in/3.pdf"} {
		if _, err := l.Record(ledger.Entry{
			Op: ledger.OpRename, OriginalPath: path, NewPath: "/out" + path[3:],
			ContentHash: "h", Timestamp: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	plan, err := l.PlanUndo(ledger.Filter{Path: "/in/2.pdf"})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	if len(plan) != 1 || plan[0].Source.OriginalPath != "/in/2.pdf" {
		t.Fatalf("path filter broken: %+v", plan)
	}

	plan, err = l.PlanUndo(ledger.Filter{Since: base.Add(90 * time.Second)})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	if len(plan) != 1 || plan[0].Source.OriginalPath != "/in/3.pdf" {
		t.Fatalf("since filter broken: %+v", plan)
	}

	plan, err = l.PlanUndo(ledger.Filter{Last: 2})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	if len(plan) != 2 || plan[0].Source.OriginalPath != "/in/3.pdf" {
		t.Fatalf("last filter broken: %+v", plan)
	}
}

func TestUndoAppendsSyntheticEntry(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, filepath.Join(dir, "state"))
	src := filepath.Join(dir, "inbox", "a.pdf")
	dst := filepath.Join(dir, "processed", "a.pdf")
	hash := writeFile(t, dst, "body")

	entry, err := l.Record(ledger.Entry{
		Op: ledger.OpRename, OriginalPath: src, NewPath: dst, ContentHash: hash,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	plan, err := l.PlanUndo(ledger.Filter{})
	if err != nil {
		t.Fatalf("PlanUndo failed: %v", err)
	}
	if err := l.Apply(plan[0]); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	entries, err := l.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected original + reversal, got %d entries", len(entries))
	}
	reversal := entries[1]
	if !reversal.Reversal || reversal.ReversalOf != entry.ID {
		t.Fatalf("reversal entry malformed: %+v", reversal)
	}
}
