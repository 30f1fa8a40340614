package retryqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"docket/internal/fileutil"
	"docket/internal/services"
	"docket/internal/translate"
)

const queueFileName = "queue.json"

// partitions are the logical views mirrored as marker directories next to
// the consolidated status file, so the queue can be inspected with ls alone.
var partitions = []Status{StatusPending, StatusFailed, StatusRetryReady}

// Translator is the slice of the fallback chain the retry scheduler needs.
type Translator interface {
	Translate(ctx context.Context, text string) (translate.Result, error)
}

// Store persists translation requests under <stateDir>/queue. Writes are
// serialized by an in-process mutex plus a file lock, so concurrent workers
// and concurrent processes both see whole states only.
type Store struct {
	mu          sync.Mutex
	dir         string
	lock        *flock.Flock
	maxAttempts int
	delay       time.Duration
	requests    []Request
}

// Summary is the per-state request count, with retry_ready split out of
// failed.
type Summary struct {
	Pending    int
	Failed     int
	RetryReady int
	Success    int
	Skipped    int
}

// Total returns the number of requests across all states.
func (s Summary) Total() int {
	return s.Pending + s.Failed + s.RetryReady + s.Success + s.Skipped
}

// RetryOutcome reports what a retry-all pass did.
type RetryOutcome struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
}

// Open loads (or initializes) the queue under stateDir.
func Open(stateDir string, maxAttempts int, delay time.Duration) (*Store, error) {
	dir := filepath.Join(stateDir, "queue")
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, services.Wrap(services.ErrStorageIO, "queue", "open", "ensure queue directory", err)
	}
	s := &Store{
		dir:         dir,
		lock:        flock.New(filepath.Join(dir, "queue.lock")),
		maxAttempts: maxAttempts,
		delay:       delay,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(filepath.Join(s.dir, queueFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrStorageIO, "queue", "load", "read queue file", err)
	}
	var file struct {
		Requests []Request `json:"requests"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return services.Wrap(services.ErrStorageIO, "queue", "load", "decode queue file", err)
	}
	s.requests = file.Requests
	return nil
}

// save persists the full queue and refreshes the partition marker dirs.
// Called after every state transition; a failure is a storage error and
// fatal to the run.
func (s *Store) save(now time.Time) error {
	data, err := json.MarshalIndent(struct {
		Requests []Request `json:"requests"`
	}{Requests: s.requests}, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrStorageIO, "queue", "save", "encode queue", err)
	}
	if err := s.lock.Lock(); err != nil {
		return services.Wrap(services.ErrStorageIO, "queue", "save", "acquire queue lock", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()
	if err := fileutil.WriteFileAtomic(filepath.Join(s.dir, queueFileName), data, 0o644); err != nil {
		return services.Wrap(services.ErrStorageIO, "queue", "save", "write queue file", err)
	}
	return s.syncPartitions(now)
}

func (s *Store) syncPartitions(now time.Time) error {
	for _, status := range partitions {
		dir := filepath.Join(s.dir, string(status))
		if err := os.RemoveAll(dir); err != nil {
			return services.Wrap(services.ErrStorageIO, "queue", "save", "reset partition "+string(status), err)
		}
		if err := fileutil.EnsureDir(dir); err != nil {
			return services.Wrap(services.ErrStorageIO, "queue", "save", "create partition "+string(status), err)
		}
	}
	for _, req := range s.requests {
		status := EffectiveStatus(req, now)
		switch status {
		case StatusPending, StatusFailed, StatusRetryReady:
			marker, err := json.MarshalIndent(req, "", "  ")
			if err != nil {
				return services.Wrap(services.ErrStorageIO, "queue", "save", "encode marker", err)
			}
			path := filepath.Join(s.dir, string(status), req.ID+".json")
			if err := os.WriteFile(path, marker, 0o644); err != nil {
				return services.Wrap(services.ErrStorageIO, "queue", "save", "write marker", err)
			}
		}
	}
	return nil
}

// Enqueue records a translation that exhausted every tier. The request
// passes through pending and lands in failed with its first attempt counted
// and a retry scheduled.
func (s *Store) Enqueue(text, lang, cause string, now time.Time) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.requests {
		if req.OriginalText == text && req.TargetLanguage == lang && !req.Terminal() {
			return req, nil
		}
	}

	req := Request{
		ID:             uuid.NewString(),
		OriginalText:   text,
		TargetLanguage: lang,
		Status:         StatusFailed,
		AttemptCount:   1,
		NextRetryAt:    now.Add(s.delay),
		LastError:      cause,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.requests = append(s.requests, req)
	if err := s.save(now); err != nil {
		return Request{}, err
	}
	return req, nil
}

// All returns a copy of every request, oldest first.
func (s *Store) All() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ByStatus returns requests whose effective status at now matches.
func (s *Store) ByStatus(status Status, now time.Time) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, req := range s.requests {
		if EffectiveStatus(req, now) == status {
			out = append(out, req)
		}
	}
	return out
}

// Summarize counts requests per effective state.
func (s *Store) Summarize(now time.Time) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum Summary
	for _, req := range s.requests {
		switch EffectiveStatus(req, now) {
		case StatusPending:
			sum.Pending++
		case StatusFailed:
			sum.Failed++
		case StatusRetryReady:
			sum.RetryReady++
		case StatusSuccess:
			sum.Success++
		case StatusSkipped:
			sum.Skipped++
		}
	}
	return sum
}

// RetryAll re-attempts every retry-ready request through the translator.
// Success is terminal; failure reschedules until the attempt budget is
// spent, after which the request is skipped for manual intervention. The
// queue is persisted after each transition.
func (s *Store) RetryAll(ctx context.Context, translator Translator, now time.Time) (RetryOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome RetryOutcome
	for i := range s.requests {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		req := &s.requests[i]
		if !EligibleForRetry(*req, now) {
			continue
		}
		outcome.Attempted++
		req.AttemptCount++
		req.UpdatedAt = now

		res, err := translator.Translate(ctx, req.OriginalText)
		if err == nil {
			req.Status = StatusSuccess
			req.Result = res.Text
			req.LastError = ""
			outcome.Succeeded++
		} else if req.AttemptCount >= s.maxAttempts {
			req.Status = StatusSkipped
			req.LastError = err.Error()
			outcome.Skipped++
		} else {
			req.Status = StatusFailed
			req.NextRetryAt = now.Add(s.delay)
			req.LastError = err.Error()
			outcome.Failed++
		}
		if err := s.save(now); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// ClearTerminal drops success and skipped requests and reports how many were
// removed.
func (s *Store) ClearTerminal(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.requests[:0]
	removed := 0
	for _, req := range s.requests {
		if req.Terminal() {
			removed++
			continue
		}
		kept = append(kept, req)
	}
	s.requests = kept
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(now); err != nil {
		return removed, err
	}
	return removed, nil
}

// Get returns a request by ID.
func (s *Store) Get(id string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.ID == id {
			return req, nil
		}
	}
	return Request{}, services.Wrap(services.ErrNotFound, "queue", "get", fmt.Sprintf("request %s", id), nil)
}
