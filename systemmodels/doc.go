// Package systemmodels holds the home-automation assistant's built-in prompt models
// (time-range extraction, event summarization chat, embeddings) and registers them
// with a modelsync.Registry.
package systemmodels
