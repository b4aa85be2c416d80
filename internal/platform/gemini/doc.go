// Package gemini implements the generation.Generator interface using the
// Google Gemini API. Prompts and response parsing live here; the rest of
// the application only ever sees the typed domain values.
package gemini
