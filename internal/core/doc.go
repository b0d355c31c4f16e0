// Package core provides the business logic for catalog CSV import operations.
//
// This package is the heart of the catalog importer, containing all domain
// logic independent of any UI or transport layer. It is used by the HTTP
// handlers, the command-line tool, and tests without modification.
//
// # Pipeline
//
// An import moves through a fixed sequence of phases:
//
//  1. uploading: [ValidateFile] checks extension, size and emptiness
//  2. validating: [ParseText] tokenizes the text, checks the header against
//     the expected columns and validates every data row
//  3. processing: valid rows become [CatalogEntryCandidate] values and the
//     referenced categories are diffed against the [CategoryDirectory]
//  4. inserting: candidates are written through the [ProductStore] in
//     fixed-size chunks; a failed chunk is counted and the run continues
//  5. completed, or error on any unrecoverable failure
//
// # Category Confirmation
//
// When a file references categories the directory does not know, [Run.Prepare]
// returns a [NeedsCategoryConfirmation] and the run is suspended. The caller
// answers with [Run.Resume]. A suspended run can be captured as a [Plan] and
// restored later with [Importer.RunFromPlan].
//
// # Progress
//
// Every phase transition and chunk attempt is broadcast as an
// [ImportProgress] to subscribers of [Run.Subscribe]. Channels are closed
// after the terminal value.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE004: File errors (extension, empty, size, encoding)
//   - VAL001-VAL004: Validation errors (columns, line count, rows)
//   - IMP001-IMP006: Import errors (cancelled, declined, busy, not found)
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
package core
