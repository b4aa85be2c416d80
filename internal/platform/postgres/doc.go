// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in the store package.
//
// All stores accept a store.DBTX so they run equally against a connection
// pool or an open transaction, and they translate driver-level errors into
// the sentinel errors callers match on with errors.Is.
package postgres
