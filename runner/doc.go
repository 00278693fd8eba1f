// Package runner invokes stored orchestras.
//
// A Runner sits between the registry and the session coordinator:
//
//   - Run loads an orchestra, resolves its definition (designing a team for
//     orchestras stored without agents), exports the definition, binds the
//     roster, drives one session and persists the outcome and transcript.
//   - Build asks a builder.Designer for a new definition and stores it.
//   - Cancel stops an in-flight session by id.
//
// Sessions that fail are reported through their outcome, not as errors.
package runner
