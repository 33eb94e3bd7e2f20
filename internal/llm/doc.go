// Package llm provides the generative fallback's language model clients.
// It supports OpenAI-compatible chat completion APIs and Anthropic, with
// retry logic, rate limiting, and response caching layered on top by Service.
package llm
