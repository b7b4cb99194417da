// Package ingestion builds index snapshots from pattern documents.
//
// The Pipeline is the single writer of a snapshot root. A run:
//   - validates, normalizes and chunks every document, counting skipped ones
//   - assigns dense row ids in (source kind, pattern id, order) order
//   - embeds chunk text in batches on a worker pool, retrying with backoff
//   - writes the embedding matrix, chunk address index and filter index
//     concurrently into a fresh snapshot directory
//   - commits the manifest, swaps CURRENT and prunes old snapshots
//
// Documents that produce no chunks are left out of every store. Malformed
// documents are skipped and counted, not fatal to the run.
package ingestion
