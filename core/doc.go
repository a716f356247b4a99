// Package core implements the unit-of-work transaction coordinator: a
// staging area that accumulates heterogeneous pending changes (entity
// inserts/updates/deletes, bulk collections, raw queries) and commits
// them atomically against a backing datastore, firing post-commit
// notification hooks once the transaction is durable.
package core
