// Package llm answers free-text inventory questions through a language model.
// Gemini is the supported provider; without an API key the package hands out a
// stub that reports common.ErrNotConfigured. Calls are rate limited, retried on
// transient failures and cached for a short time.
package llm
