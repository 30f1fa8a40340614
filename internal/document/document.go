// Package document models input files and discovers them on disk.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docket/internal/fileutil"
	"docket/internal/textutil"
)

// Record identifies one input file. Created at discovery and never mutated;
// the ledger is the durable record, not this struct.
type Record struct {
	SourcePath  string
	Name        string
	Fingerprint string
	Script      textutil.Script
}

// Discover walks dir (non-recursively) for files with the given extension
// and returns a Record per file, fingerprinted and classified, sorted by
// name for a stable processing order.
func Discover(dir, ext string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		path := filepath.Join(dir, name)
		fingerprint, err := fileutil.HashFile(path)
		if err != nil {
			return nil, fmt.Errorf("fingerprint %s: %w", path, err)
		}
		records = append(records, Record{
			SourcePath:  path,
			Name:        name,
			Fingerprint: fingerprint,
			Script:      textutil.Classify(name),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// UnsafeNames returns the discovered filenames that require translation.
func UnsafeNames(records []Record) []string {
	var names []string
	for _, rec := range records {
		if rec.Script == textutil.ScriptNonASCII {
			names = append(names, rec.Name)
		}
	}
	return names
}
