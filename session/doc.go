// Package session houses concrete implementations of core.OutcomeStore that
// keep finished sessions around after the coordinator has returned.
//
// Archive is the process-local store used by tests and the CLI when no
// database is configured; registry.SQLiteStore is the durable one.
package session
