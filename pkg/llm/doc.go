// Package llm forwards conversations to an OpenAI-compatible chat
// completion API.
//
// The client makes a single request per call: no retries and no streaming.
// A missing API key is not an error at construction time; it surfaces as
// ErrCredentialMissing when a completion is requested.
package llm
