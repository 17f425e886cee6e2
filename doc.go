// Package modelsync describes prompt models for a home-automation assistant and the
// registry they are published to. A ModelDescriptor pairs a provider model id and task
// with an ordered message template; a Registry stores descriptors as versioned models.
// Concrete registries live in subpackages (see mlflow).
package modelsync
