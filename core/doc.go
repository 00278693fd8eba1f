// Package core provides the foundational domain types and interfaces of
// MetaGen. It defines:
//
//   - Agents (named participants bound to a Capability)
//   - Rosters (ordered agents plus a rotation rule)
//   - Transcripts (append-only round logs)
//   - Sessions and Outcomes (coordinator state and its terminal report)
//   - Consumed collaborators: Registry, Builder, OutcomeStore, ArtifactStore
//
// Concrete coordination lives in package engine, speaker selection in flow and
// capability providers in agent. This package keeps those concerns out of
// scope and exposes small interfaces so storage and providers can be swapped.
package core
