// Package store defines the persistence interfaces for the hiring
// pipeline's entities, plus shared database plumbing (DBTX, transactions)
// and the sentinel errors implementations must return.
package store
