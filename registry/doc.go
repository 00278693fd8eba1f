// Package registry provides core.Registry implementations: a process local
// InMemoryStore and a durable SQLiteStore that also keeps session outcomes.
//
// Both stores start with the sample orchestras returned by Samples unless
// told otherwise.
package registry
