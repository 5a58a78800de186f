// Package llm wraps the chat-completion API used to draft article text.
// The client retries transient failures with exponential backoff and
// honors Retry-After hints, and tolerates the response-shape quirks of
// OpenAI-compatible providers.
package llm
