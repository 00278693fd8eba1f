// Package artifact contains implementations of core.ArtifactStore, the sink
// for exported orchestra configurations and session transcripts.
//
// InMemoryStore keeps everything in process and backs the tests. FileStore
// writes plain files below a root directory, one subdirectory per
// namespace, so exports can be inspected and versioned by hand.
package artifact
