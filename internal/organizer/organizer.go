// Package organizer drives the per-document pipeline: convert, extract
// metadata, build the destination identity, translate when the source name
// is non-ASCII, record the mutation in the ledger, and file the document
// into its supplier partition. One document's failure never aborts the
// batch; the caller collects outcomes and carries on.
package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docket/internal/config"
	"docket/internal/document"
	"docket/internal/fileutil"
	"docket/internal/ledger"
	"docket/internal/logging"
	"docket/internal/naming"
	"docket/internal/retryqueue"
	"docket/internal/services"
	"docket/internal/services/pdftext"
	"docket/internal/textutil"
	"docket/internal/translate"
)

// maxCollisionSuffix bounds destination disambiguation before the document
// is reported as a conflict instead.
const maxCollisionSuffix = 99

// Converter extracts text from a document on disk.
type Converter func(path string) (pdftext.Result, error)

// Extractor returns structured metadata for document text.
type Extractor interface {
	Extract(ctx context.Context, text string) (naming.Metadata, error)
}

// Translator is the slice of the fallback chain the organizer needs.
type Translator interface {
	Translate(ctx context.Context, text string) (translate.Result, error)
	TranslateFilename(ctx context.Context, base string) (translate.Result, error)
}

// Outcome is the result of processing one document.
type Outcome struct {
	Record          document.Record
	Operation       ledger.Op
	Destination     string
	Supplier        string
	ContractType    string
	Provider        string
	Degraded        bool
	TranslatedChars int
	Queued          bool
	Err             error
}

// Organizer wires the pipeline's collaborators together.
type Organizer struct {
	cfg        *config.Config
	builder    *naming.Builder
	convert    Converter
	extractor  Extractor
	translator Translator
	queue      *retryqueue.Store
	ledger     *ledger.Ledger
	logger     *slog.Logger

	// destMu serializes destination resolution with the filesystem commit so
	// concurrent workers cannot claim the same path between stat and rename.
	destMu sync.Mutex
}

// New constructs an Organizer.
func New(
	cfg *config.Config,
	convert Converter,
	extractor Extractor,
	translator Translator,
	queue *retryqueue.Store,
	led *ledger.Ledger,
	logger *slog.Logger,
) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{
		cfg:        cfg,
		builder:    naming.NewBuilder(cfg.Naming.ExcludedSuppliers),
		convert:    convert,
		extractor:  extractor,
		translator: translator,
		queue:      queue,
		ledger:     led,
		logger:     logger,
	}
}

// Process runs the pipeline for one document. The returned Outcome carries
// either a destination or an error; fatal storage errors are the only errors
// the caller must treat as run-ending (services.IsFatal).
func (o *Organizer) Process(ctx context.Context, rec document.Record, now time.Time) Outcome {
	outcome := Outcome{Record: rec}
	ctx = services.WithDocument(ctx, rec.Name)
	log := logging.WithContext(ctx, o.logger)

	if err := ctx.Err(); err != nil {
		outcome.Err = services.Wrap(services.ErrTimeout, "organizer", "process", "run cancelled", err)
		return outcome
	}

	converted, err := o.convert(rec.SourcePath)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	meta, err := o.extractor.Extract(ctx, converted.Text)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if rec.Script == textutil.ScriptASCII {
		o.processRename(ctx, &outcome, meta)
	} else {
		o.processTranslate(ctx, &outcome, meta, now)
	}
	if outcome.Err != nil {
		return outcome
	}

	log.Info("document filed",
		logging.String("operation", string(outcome.Operation)),
		logging.String("destination", outcome.Destination),
		logging.String(logging.FieldProvider, outcome.Provider))
	return outcome
}

// processRename handles ASCII-named documents: the canonical name built from
// metadata becomes the destination and the file is moved.
func (o *Organizer) processRename(_ context.Context, outcome *Outcome, meta naming.Metadata) {
	name, err := o.builder.Build(meta)
	if err != nil {
		outcome.Err = err
		return
	}
	outcome.Supplier = name.Supplier
	outcome.ContractType = name.Type

	o.place(outcome, ledger.OpRename, name.Supplier, name.Base(), metadataSnapshot(meta, name.Base()))
}

// processTranslate handles non-ASCII-named documents: the original filename
// is translated through the fallback chain and the file is copied, leaving
// the unsafe-named original untouched. Exhaustion lands the name in the
// retry queue instead of dropping the document.
func (o *Organizer) processTranslate(ctx context.Context, outcome *Outcome, meta naming.Metadata, now time.Time) {
	base := strings.TrimSuffix(outcome.Record.Name, filepath.Ext(outcome.Record.Name))
	lang := o.cfg.Translation.TargetLanguage

	res, err := o.translator.TranslateFilename(ctx, base)
	if err != nil {
		// A cancelled run surfaces as a timeout from the chain; no provider
		// was actually exhausted, so nothing belongs in the retry queue.
		if services.IsRetryable(err) && ctx.Err() == nil {
			if _, qErr := o.queue.Enqueue(base, lang, err.Error(), now); qErr != nil {
				outcome.Err = qErr
				return
			}
			outcome.Queued = true
		}
		outcome.Err = err
		return
	}
	outcome.Provider = res.Provider
	outcome.Degraded = res.Degraded
	outcome.TranslatedChars = res.Chars

	supplier, err := o.resolveSupplier(ctx, meta)
	if err != nil {
		outcome.Err = err
		return
	}
	outcome.Supplier = supplier
	outcome.ContractType = textutil.SanitizeToken(meta.ContractType)

	o.place(outcome, ledger.OpTranslate, supplier, res.Text, metadataSnapshot(meta, res.Text))
}

// resolveSupplier produces the partition directory name, translating a
// non-ASCII supplier through the chain first so Japanese party names still
// partition sensibly.
func (o *Organizer) resolveSupplier(ctx context.Context, meta naming.Metadata) (string, error) {
	supplier := strings.TrimSpace(meta.Supplier)
	if supplier == "" {
		return "", &naming.MissingFieldError{Field: "supplier"}
	}
	if textutil.Classify(supplier) == textutil.ScriptNonASCII {
		res, err := o.translator.Translate(ctx, supplier)
		if err != nil {
			return "", err
		}
		supplier = res.Text
	}
	normalized := naming.NormalizeSupplier(supplier)
	if normalized == "unknown" {
		return "", &naming.MissingFieldError{Field: "supplier"}
	}
	for _, excluded := range o.cfg.Naming.ExcludedSuppliers {
		if strings.EqualFold(naming.NormalizeSupplier(excluded), normalized) {
			return "", &naming.ExcludedSupplierError{Supplier: meta.Supplier}
		}
	}
	return normalized, nil
}

// place resolves a collision-free destination and applies the filesystem
// mutation as one step under destMu. Without the lock two workers filing
// documents with the same canonical name could both see the candidate path
// free and overwrite each other.
func (o *Organizer) place(outcome *Outcome, op ledger.Op, supplier, base string, snapshot map[string]string) {
	o.destMu.Lock()
	defer o.destMu.Unlock()

	dest, err := o.resolveDestination(supplier, base)
	if err != nil {
		outcome.Err = err
		return
	}
	o.commit(outcome, op, dest, snapshot)
}

// resolveDestination picks a collision-free path under the supplier
// partition. Two documents resolving to the same name never silently
// overwrite one another: the later one gets a numeric suffix. Callers hold
// destMu so the stat-then-claim sequence is race-free.
func (o *Organizer) resolveDestination(supplier, base string) (string, error) {
	dir := filepath.Join(o.cfg.Paths.ProcessedDir, supplier)
	if err := fileutil.EnsureDir(dir); err != nil {
		return "", services.Wrap(services.ErrStorageIO, "organizer", "destination", "ensure "+dir, err)
	}
	ext := o.cfg.Naming.Extension

	candidate := filepath.Join(dir, base+ext)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}
	for i := 2; i <= maxCollisionSuffix; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			o.logger.Warn("destination collision, using suffix",
				logging.String("destination", candidate))
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "organizer", "destination",
		"too many collisions for "+base, nil)
}

// commit applies the filesystem operation and records it. Rename moves the
// file; translate copies it and keeps the original. The ledger entry is
// written after the mutation succeeds, with the verified content hash.
func (o *Organizer) commit(outcome *Outcome, op ledger.Op, dest string, snapshot map[string]string) {
	src := outcome.Record.SourcePath
	var hash string
	var err error
	if op == ledger.OpRename {
		if err = fileutil.MoveFile(src, dest); err == nil {
			hash, err = fileutil.HashFile(dest)
		}
	} else {
		hash, err = fileutil.CopyFileVerified(src, dest)
	}
	if err != nil {
		outcome.Err = services.Wrap(services.ErrStorageIO, "organizer", string(op),
			fmt.Sprintf("%s -> %s", src, dest), err)
		return
	}

	if _, err := o.ledger.Record(ledger.Entry{
		Op:           op,
		OriginalPath: src,
		NewPath:      dest,
		ContentHash:  hash,
		Metadata:     snapshot,
	}); err != nil {
		outcome.Err = err
		return
	}
	outcome.Operation = op
	outcome.Destination = dest
}

func metadataSnapshot(meta naming.Metadata, base string) map[string]string {
	snapshot := map[string]string{
		"contract_id":   meta.ContractID,
		"contract_type": meta.ContractType,
		"supplier":      meta.Supplier,
		"resolved_name": base,
	}
	if meta.EffectiveDate != "" {
		snapshot["effective_date"] = meta.EffectiveDate
	}
	if meta.ExpirationDate != "" {
		snapshot["expiration_date"] = meta.ExpirationDate
	}
	return snapshot
}
