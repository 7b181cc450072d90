// Package synclog defines the persisted sync-log record and its store.
//
// One record is created per sync attempt (success or failure) and is
// immutable after creation; records only leave the store through the
// retention service. Two implementations are provided: MemStore for tests
// and FileStore, which keeps one JSON file per project on an afero
// filesystem so the service runs without a database.
package synclog
