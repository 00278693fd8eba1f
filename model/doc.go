// Package model defines the language-model abstraction used by model-backed
// agents and the model builder. Adapters for OpenAI and Anthropic live in
// subpackages; MockModel serves tests and offline runs.
package model
