// Package generation provides interfaces and implementations for interacting
// with external AI/LLM services. It abstracts the details of LLM API
// integration (Gemini), allowing pipeline stages to extract CV profiles,
// score candidates, generate interview questions and analyze transcripts
// without coupling to specific external services.
package generation
