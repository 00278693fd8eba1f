// Package builder turns orchestra definitions into rosters.
//
// A Definition is the portable description of a team: its agents, the
// rotation rule and the run limits. It can be written as JSON, YAML or TOML
// and is validated against a JSON Schema before use. Three builders produce
// rosters from it:
//
//   - StaticBuilder binds an existing Definition
//   - TemplateBuilder derives a planner / expert / critic team from a task
//     description without calling a model
//   - ModelBuilder asks a language model to design the team
package builder
