// Package engine implements the session coordinator of MetaGen.
//
// The Coordinator takes a validated roster and an initiating task message and
// drives a bounded, turn-based exchange among the roster's agents until a
// terminal condition is reached. It always returns a terminal core.Outcome;
// expected failures never escape as errors or panics.
//
// # State machine
//
//	Running ──predicate matched──────────▶ CompletedNormally
//	   │
//	   ├──current_round == max_rounds───▶ CompletedByRoundLimit
//	   │
//	   └──capability / cancel / config──▶ Failed
//
// Every round executes the same steps:
//
//  1. Check for cancellation (failure reason "cancelled").
//  2. Select the next speaker through the roster's flow.Selector.
//  3. Call the speaker's capability with the full transcript, oldest first,
//     bounded by the per-call timeout and retried up to the retry budget.
//  4. Append exactly one transcript entry and advance the round counter.
//  5. Evaluate the termination predicate, then the round limit.
//
// Configuration errors (invalid roster, no eligible speaker, non-positive
// max_rounds) are detected before any round runs, so the reported transcript
// is empty.
//
// # Kickoff
//
// A non-empty task message is recorded as a round-zero entry spoken by the
// synthetic initiator (or a roster agent chosen via Request.KickoffSpeaker).
// Rounds produced by agents are numbered from one, so at every observation
// point len(transcript) == current_round (+1 with kickoff).
//
// # Concurrency
//
// One session is driven by a single goroutine. A Coordinator may run many
// sessions at once (see RunAll); sessions share nothing except the
// coordinator's cancel registry, which is touched only at session start and
// end.
//
// # Observability
//
// Lifecycle callbacks (see CallbackManager) fire at session start and end, at
// each round and on every retry. Sessions and rounds are traced with
// OpenTelemetry spans and logged through logging.Logger.
package engine
