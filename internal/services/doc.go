// Package services defines the shared error taxonomy for external
// collaborators and the context carriers used to thread run and document
// identity through the pipeline.
//
// Per-document failures (validation, provider errors, exhausted translation)
// are caught at the organizer boundary and never abort a batch. Storage
// failures on the ledger or retry queue are fatal: silent loss on the audit
// trail is unacceptable.
package services
