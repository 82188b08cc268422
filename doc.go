// Package hfsync synchronizes model weight files from a Hugging Face style
// registry to local storage, with optional mirroring to a secondary
// directory and an S3-compatible object store.
//
// The package serves two primary use cases:
//
//  1. Programmatic API via the Syncer interface - Applications hand Run a
//     batch of identifier rows and receive aggregate success/failure counts.
//
//  2. Embeddable CLI via NewCommand - Parent CLI tools can attach a complete
//     "hf-sync" subcommand tree to their Cobra root command, providing
//     commands like "mytool hf-sync sync", "mytool hf-sync resolve", etc.
//
// # Resumability
//
// File transfers stream into a ".part" temp file and are finalized with an
// atomic rename. An interrupted run leaves the temp file behind; the next
// run resumes it with an HTTP Range request. There is no retry loop inside
// a single transfer - re-running the tool is the retry mechanism.
//
// # Deduplication
//
// Rows are resolved to canonical "org/name" repository ids. Each id is
// processed at most once per run, and repository metadata is cached on disk
// across runs so repeated invocations do not re-query the registry.
//
// # Mirroring
//
// Finalized files can be replicated to a secondary directory (hardlink with
// copy fallback) and uploaded to an object-storage bucket. Mirror failures
// are reported as warnings and never fail the owning model.
package hfsync
