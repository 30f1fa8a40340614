package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docket/internal/fileutil"
	"docket/internal/services"
)

// Inverse is the filesystem operation that undoes one ledger entry.
type Inverse struct {
	Source Entry
	// From is the path the file currently occupies; To is where it goes.
	// Remove is set for translate undo: the copy is deleted and the
	// untouched original is the restoration.
	From   string
	To     string
	Remove bool
}

// Filter narrows which entries an undo pass targets. Zero value matches
// everything.
type Filter struct {
	Path  string
	Since time.Time
	Last  int
}

// Reverse computes the inverse of a single entry. Rename moves the file
// back; translate removes the copy since the source was never deleted.
func Reverse(entry Entry) (Inverse, error) {
	switch entry.Op {
	case OpRename:
		return Inverse{Source: entry, From: entry.NewPath, To: entry.OriginalPath}, nil
	case OpTranslate:
		return Inverse{Source: entry, From: entry.NewPath, Remove: true}, nil
	default:
		return Inverse{}, services.Wrap(services.ErrValidation, "ledger", "reverse",
			fmt.Sprintf("unknown operation %q", entry.Op), nil)
	}
}

// PlanUndo yields the inverse operations for the entries matching filter, in
// reverse chronological order so chained mutations unwind correctly. Entries
// that are themselves reversals, or that have already been reversed, are
// excluded.
func (l *Ledger) PlanUndo(filter Filter) ([]Inverse, error) {
	entries, err := l.Read()
	if err != nil {
		return nil, err
	}

	reversed := make(map[string]struct{})
	for _, entry := range entries {
		if entry.Reversal && entry.ReversalOf != "" {
			reversed[entry.ReversalOf] = struct{}{}
		}
	}

	var candidates []Entry
	for _, entry := range entries {
		if entry.Reversal {
			continue
		}
		if _, done := reversed[entry.ID]; done {
			continue
		}
		if filter.Path != "" && entry.OriginalPath != filter.Path && entry.NewPath != filter.Path {
			continue
		}
		if !filter.Since.IsZero() && entry.Timestamp.Before(filter.Since) {
			continue
		}
		candidates = append(candidates, entry)
	}

	// Newest first: undoing a chain requires unwinding in reverse order.
	for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	if filter.Last > 0 && len(candidates) > filter.Last {
		candidates = candidates[:filter.Last]
	}

	inverses := make([]Inverse, 0, len(candidates))
	for _, entry := range candidates {
		inv, err := Reverse(entry)
		if err != nil {
			return nil, err
		}
		inverses = append(inverses, inv)
	}
	return inverses, nil
}

// Apply executes one inverse operation. The file at the recorded destination
// must still match the recorded content hash; drift means someone touched it
// out-of-band and the undo refuses rather than destroy their change. A
// successful apply appends a synthetic reversal entry so the same mutation
// is never undone twice.
func (l *Ledger) Apply(inv Inverse) error {
	hash, err := fileutil.HashFile(inv.From)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrNotFound, "ledger", "undo", inv.From, err)
		}
		return services.Wrap(services.ErrStorageIO, "ledger", "undo", "hash "+inv.From, err)
	}
	if !strings.EqualFold(hash, inv.Source.ContentHash) {
		return services.Wrap(services.ErrIntegrityMismatch, "ledger", "undo",
			fmt.Sprintf("%s changed since the ledger entry was written (hash %s, recorded %s)",
				inv.From, hash, inv.Source.ContentHash), nil)
	}

	if inv.Remove {
		if err := os.Remove(inv.From); err != nil {
			return services.Wrap(services.ErrStorageIO, "ledger", "undo", "remove "+inv.From, err)
		}
	} else {
		if _, err := os.Stat(inv.To); err == nil {
			return services.Wrap(services.ErrIntegrityMismatch, "ledger", "undo",
				inv.To+" already exists, refusing to overwrite", nil)
		}
		if err := fileutil.EnsureDir(filepath.Dir(inv.To)); err != nil {
			return services.Wrap(services.ErrStorageIO, "ledger", "undo", "ensure "+filepath.Dir(inv.To), err)
		}
		if err := fileutil.MoveFile(inv.From, inv.To); err != nil {
			return services.Wrap(services.ErrStorageIO, "ledger", "undo",
				fmt.Sprintf("move %s back to %s", inv.From, inv.To), err)
		}
	}

	_, err = l.Record(Entry{
		Op:           inv.Source.Op,
		OriginalPath: inv.From,
		NewPath:      inv.To,
		ContentHash:  inv.Source.ContentHash,
		Reversal:     true,
		ReversalOf:   inv.Source.ID,
	})
	return err
}
