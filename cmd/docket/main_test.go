package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docket/internal/fileutil"
	"docket/internal/ledger"
	"docket/internal/retryqueue"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	inboxDir   string
	stateDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		inboxDir:   filepath.Join(base, "inbox"),
		stateDir:   filepath.Join(base, "state"),
	}
	if err := os.MkdirAll(env.inboxDir, 0o755); err != nil {
		t.Fatalf("create inbox: %v", err)
	}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
inbox_dir = %q
processed_dir = %q
state_dir = %q
log_dir = %q
summary_dir = %q

[cache]
enabled = false
`,
		env.inboxDir,
		filepath.Join(env.baseDir, "processed"),
		env.stateDir,
		filepath.Join(env.baseDir, "logs"),
		filepath.Join(env.baseDir, "summary"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(env.baseDir, "fresh", "config.toml")
	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// Re-running without --overwrite must refuse.
	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing config file")
	}
}

func TestCLIQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "queue")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	requireContains(t, out, "Retry queue is empty")

	queue, err := retryqueue.Open(env.stateDir, 3, 24*time.Hour)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	if _, err := queue.Enqueue("未知語彙", "en", "provider down", time.Now().UTC()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, _, err = runCLI(t, env, "queue", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "未知語彙")
	requireContains(t, out, "1 failed")

	if _, _, err := runCLI(t, env, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status")
	}

	// Clear refuses without --terminal and removes nothing while the request
	// is still active.
	if _, _, err := runCLI(t, env, "queue", "clear"); err == nil {
		t.Fatal("expected error without --terminal")
	}
	out, _, err = runCLI(t, env, "queue", "clear", "--terminal")
	if err != nil {
		t.Fatalf("queue clear --terminal: %v", err)
	}
	requireContains(t, out, "Removed 0 terminal request(s)")
}

func TestCLILedgerAndUndo(t *testing.T) {
	env := setupCLITestEnv(t)

	// Simulate one filed rename so undo has something to reverse.
	original := filepath.Join(env.inboxDir, "contract.pdf")
	filed := filepath.Join(env.baseDir, "processed", "GyanSys", "GyanSys_SoW_2024_2999_C1.pdf")
	if err := os.MkdirAll(filepath.Dir(filed), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filed, []byte("contract body"), 0o644); err != nil {
		t.Fatalf("write filed document: %v", err)
	}
	hash, err := fileutil.HashFile(filed)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	led, err := ledger.Open(env.stateDir)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if _, err := led.Record(ledger.Entry{
		Op:           ledger.OpRename,
		OriginalPath: original,
		NewPath:      filed,
		ContentHash:  hash,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	out, _, err := runCLI(t, env, "ledger")
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	requireContains(t, out, "GyanSys_SoW_2024_2999_C1.pdf")

	out, _, err = runCLI(t, env, "undo", "--dry-run")
	if err != nil {
		t.Fatalf("undo --dry-run: %v", err)
	}
	requireContains(t, out, "would move")
	if _, err := os.Stat(filed); err != nil {
		t.Fatalf("dry run must not move files: %v", err)
	}

	out, _, err = runCLI(t, env, "undo")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	requireContains(t, out, "Reversed 1 operation(s)")
	if _, err := os.Stat(original); err != nil {
		t.Fatalf("original not restored: %v", err)
	}
	if _, err := os.Stat(filed); !os.IsNotExist(err) {
		t.Fatal("filed copy should be gone after undo")
	}

	// A second undo has nothing left to reverse.
	out, _, err = runCLI(t, env, "undo")
	if err != nil {
		t.Fatalf("second undo: %v", err)
	}
	requireContains(t, out, "Nothing to undo")
}

func TestCLIUndoTranslateReportsOriginalPath(t *testing.T) {
	env := setupCLITestEnv(t)

	// A translate entry keeps the original in the inbox and files a copy.
	original := filepath.Join(env.inboxDir, "契約書.pdf")
	if err := os.WriteFile(original, []byte("contract body"), 0o644); err != nil {
		t.Fatalf("write original: %v", err)
	}
	filed := filepath.Join(env.baseDir, "processed", "GyanSys", "Contract.pdf")
	if err := os.MkdirAll(filepath.Dir(filed), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filed, []byte("contract body"), 0o644); err != nil {
		t.Fatalf("write filed copy: %v", err)
	}
	hash, err := fileutil.HashFile(filed)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	led, err := ledger.Open(env.stateDir)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if _, err := led.Record(ledger.Entry{
		Op:           ledger.OpTranslate,
		OriginalPath: original,
		NewPath:      filed,
		ContentHash:  hash,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Both the preview and the applied reversal name the kept original.
	out, _, err := runCLI(t, env, "undo", "--dry-run")
	if err != nil {
		t.Fatalf("undo --dry-run: %v", err)
	}
	requireContains(t, out, "would remove copy "+filed)
	requireContains(t, out, "original kept at "+original)

	out, _, err = runCLI(t, env, "undo")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	requireContains(t, out, "original kept at "+original)
	requireContains(t, out, "Reversed 1 operation(s)")
	if _, err := os.Stat(original); err != nil {
		t.Fatalf("original must survive: %v", err)
	}
	if _, err := os.Stat(filed); !os.IsNotExist(err) {
		t.Fatal("filed copy should be gone after undo")
	}
}
