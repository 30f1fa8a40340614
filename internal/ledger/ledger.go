// Package ledger is the append-only audit trail of file mutations. Every
// rename and translate operation is recorded before it is considered done,
// each entry carries the content hash of the file at the time of the
// operation, and history is never edited: undo appends synthetic inverse
// entries instead. The ledger file is the sole source of truth for what
// happened to the input set.
package ledger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"docket/internal/fileutil"
	"docket/internal/services"
)

const ledgerFileName = "ledger.jsonl"

// Op is the kind of recorded mutation.
type Op string

const (
	// OpRename moved an ASCII-named file to its canonical destination.
	OpRename Op = "rename"
	// OpTranslate copied a non-ASCII-named file to a translated destination,
	// leaving the original in place.
	OpTranslate Op = "translate"
)

// Entry is one recorded mutation. Append-only: once written, never mutated
// or deleted.
type Entry struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	Op           Op                `json:"operation"`
	OriginalPath string            `json:"original_path"`
	NewPath      string            `json:"new_path"`
	ContentHash  string            `json:"content_hash"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	// Reversal entries are the synthetic inverses appended by undo.
	Reversal   bool   `json:"reversal,omitempty"`
	ReversalOf string `json:"reversal_of,omitempty"`
}

// Ledger appends entries to a JSON Lines file under stateDir. Writes are
// serialized by a mutex and a file lock; each append is flushed and synced
// before Record returns, so entries are never partially committed.
type Ledger struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// Open prepares the ledger file under stateDir.
func Open(stateDir string) (*Ledger, error) {
	if err := fileutil.EnsureDir(stateDir); err != nil {
		return nil, services.Wrap(services.ErrStorageIO, "ledger", "open", "ensure state directory", err)
	}
	path := filepath.Join(stateDir, ledgerFileName)
	return &Ledger{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// OpenFile opens a ledger at an explicit file path (for undo against an
// arbitrary ledger file).
func OpenFile(path string) *Ledger {
	return &Ledger{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file's location.
func (l *Ledger) Path() string { return l.path }

// Record appends one entry. An ID and timestamp are assigned if missing.
// Failure here is fatal to the run: an audit trail that silently loses
// writes is worse than no run at all.
func (l *Ledger) Record(entry Entry) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, services.Wrap(services.ErrStorageIO, "ledger", "record", "encode entry", err)
	}

	if err := l.lock.Lock(); err != nil {
		return Entry{}, services.Wrap(services.ErrStorageIO, "ledger", "record", "acquire ledger lock", err)
	}
	defer func() {
		_ = l.lock.Unlock()
	}()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Entry{}, services.Wrap(services.ErrStorageIO, "ledger", "record", "open ledger file", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return Entry{}, services.Wrap(services.ErrStorageIO, "ledger", "record", "append entry", err)
	}
	if err := f.Sync(); err != nil {
		return Entry{}, services.Wrap(services.ErrStorageIO, "ledger", "record", "sync ledger file", err)
	}
	return entry, nil
}

// Read returns every entry in append order. A missing file is an empty
// ledger, not an error.
func (l *Ledger) Read() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

func (l *Ledger) readLocked() ([]Entry, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorageIO, "ledger", "read", "open ledger file", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, services.Wrap(services.ErrStorageIO, "ledger", "read", "decode entry", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrStorageIO, "ledger", "read", "scan ledger file", err)
	}
	return entries, nil
}
