// Package testutil contains helper builders and fake capabilities used
// across tests to reduce boilerplate when constructing rosters and
// transcripts. They are not intended for production usage.
package testutil
