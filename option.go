package modelsync

// DescriptorOption configures ModelDescriptor (functional options pattern).
type DescriptorOption func(*ModelDescriptor)

// WithMessages sets the prompt template messages. Chat tasks require at least one.
func WithMessages(msgs ...Message) DescriptorOption {
	return func(d *ModelDescriptor) {
		d.Messages = msgs
	}
}

// WithArtifactPath sets the artifact path label the model is stored under. Default is "model".
func WithArtifactPath(path string) DescriptorOption {
	return func(d *ModelDescriptor) {
		d.ArtifactPath = path
	}
}
