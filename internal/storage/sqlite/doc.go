// Package sqlite persists built projection meshes in a SQLite database.
//
// Snapshots hold the sampled grid as a compressed blob together with the
// bounds, resolution and transform names that produced it. A process that
// starts with the same configuration can restore the newest snapshot for its
// mesh key instead of sampling both transforms again.
//
// The schema is managed with golang-migrate from migrations embedded in the
// binary.
package sqlite
