// Command docket files contract documents: it classifies filenames, builds
// canonical names from extracted metadata, translates unsafe names through a
// fallback chain, and records every mutation in a reversible ledger.
package main
