// Package openai implements encode.Encoder against OpenAI-compatible
// embedding APIs (OpenAI, Ollama, LocalAI, vLLM).
package openai
