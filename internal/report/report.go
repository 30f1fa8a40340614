// Package report accumulates run statistics and writes the per-run summary
// artifacts: a processing summary suitable for cost auditing and a README
// describing the output layout.
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docket/internal/fileutil"
	"docket/internal/ledger"
	"docket/internal/retryqueue"
	"docket/internal/services"
)

// DocumentError is one per-document failure, kept for the summary.
type DocumentError struct {
	Name  string
	Error string
}

// Stats accumulates the counts a run produces. Not safe for concurrent use;
// the workflow owns one and serializes updates.
type Stats struct {
	Started  time.Time
	Finished time.Time

	Processed       int
	Renamed         int
	Translated      int
	Degraded        int
	Failed          int
	Queued          int
	Retried         int
	TranslatedChars int

	BySupplier map[string]int
	ByType     map[string]int
	Failures   []DocumentError
}

// NewStats returns an empty Stats with its clock started.
func NewStats(now time.Time) *Stats {
	return &Stats{
		Started:    now,
		BySupplier: make(map[string]int),
		ByType:     make(map[string]int),
	}
}

// AddSuccess records one filed document.
func (s *Stats) AddSuccess(op ledger.Op, supplier, contractType string, translatedChars int, degraded bool) {
	s.Processed++
	switch op {
	case ledger.OpRename:
		s.Renamed++
	case ledger.OpTranslate:
		s.Translated++
	}
	if degraded {
		s.Degraded++
	}
	s.TranslatedChars += translatedChars
	if supplier != "" {
		s.BySupplier[supplier]++
	}
	if contractType != "" && contractType != "unknown" {
		s.ByType[contractType]++
	}
}

// AddFailure records one per-document failure.
func (s *Stats) AddFailure(name string, err error, queued bool) {
	s.Failed++
	if queued {
		s.Queued++
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	s.Failures = append(s.Failures, DocumentError{Name: name, Error: msg})
}

// Duration is the wall-clock span of the run.
func (s *Stats) Duration() time.Duration {
	if s.Finished.IsZero() || s.Finished.Before(s.Started) {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// WriteSummary renders the run summary into dir and returns the file path.
func WriteSummary(dir string, stats *Stats, queue retryqueue.Summary) (string, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return "", services.Wrap(services.ErrStorageIO, "report", "summary", "ensure "+dir, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Processing Summary\n")
	fmt.Fprintf(&b, "==================\n\n")
	fmt.Fprintf(&b, "Run started:  %s\n", stats.Started.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Run finished: %s\n", stats.Finished.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration:     %s\n\n", stats.Duration().Round(time.Second))

	fmt.Fprintf(&b, "Documents processed: %d\n", stats.Processed)
	fmt.Fprintf(&b, "  renamed:           %d\n", stats.Renamed)
	fmt.Fprintf(&b, "  translated:        %d\n", stats.Translated)
	fmt.Fprintf(&b, "  degraded (static): %d\n", stats.Degraded)
	fmt.Fprintf(&b, "Failed:              %d\n", stats.Failed)
	fmt.Fprintf(&b, "  queued for retry:  %d\n", stats.Queued)
	fmt.Fprintf(&b, "Retried this run:    %d\n", stats.Retried)
	fmt.Fprintf(&b, "Translation chars:   %d\n\n", stats.TranslatedChars)

	fmt.Fprintf(&b, "Retry queue: %d pending, %d failed, %d retry-ready, %d success, %d skipped\n\n",
		queue.Pending, queue.Failed, queue.RetryReady, queue.Success, queue.Skipped)

	writeCountSection(&b, "By supplier", stats.BySupplier)
	writeCountSection(&b, "By contract type", stats.ByType)

	if len(stats.Failures) > 0 {
		fmt.Fprintf(&b, "Failures requiring attention:\n")
		for _, failure := range stats.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", failure.Name, failure.Error)
		}
	}

	path := filepath.Join(dir, "processing_summary.txt")
	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return "", services.Wrap(services.ErrStorageIO, "report", "summary", "write "+path, err)
	}
	return path, nil
}

func writeCountSection(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, "%s:\n", title)
	for _, key := range keys {
		fmt.Fprintf(b, "  %-40s %d\n", key, counts[key])
	}
	b.WriteString("\n")
}

const readmeTemplate = `# Processed Contracts

Documents in this directory were filed automatically. Layout:

    <supplier>/<SUPPLIER>_<TYPE>_<STARTYEAR>_<ENDYEAR>_<CONTRACTID>%s

- One directory per supplier (normalized name, underscores for spaces).
- END year 2999 means the contract is open-ended.
- Files whose original name required translation keep the translated name;
  the original file was left in place in the inbox.
- Every move and copy is recorded in the state directory's ledger and can be
  undone with the undo command.
- summary/processing_summary.txt holds the counts from the latest run.
`

// WriteReadme drops a README into the processed directory describing the
// naming scheme. Existing READMEs are refreshed in place.
func WriteReadme(processedDir, extension string) error {
	if err := fileutil.EnsureDir(processedDir); err != nil {
		return services.Wrap(services.ErrStorageIO, "report", "readme", "ensure "+processedDir, err)
	}
	content := fmt.Sprintf(readmeTemplate, extension)
	path := filepath.Join(processedDir, "README.md")
	if err := fileutil.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return services.Wrap(services.ErrStorageIO, "report", "readme", "write "+path, err)
	}
	return nil
}
