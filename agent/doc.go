// Package agent provides the capability providers that give roster agents
// their voice, plus the factory that binds agent specs to them.
//
// Providers:
//   - ModelCapability prompts a language model (OpenAI, Anthropic or the
//     in-memory mock) with the transcript so far
//   - Scripted, Echo and Static reply deterministically for offline runs
//   - Human relays the conversation to a person at a terminal
//
// Model-backed capabilities are wrapped by WithRateLimit and
// WithCircuitBreaker when the factory is configured for it. Capabilities
// never append to the transcript; the coordinator does.
package agent
