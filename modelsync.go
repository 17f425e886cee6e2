package modelsync

import "context"

// Task is the kind of model call a descriptor is registered for.
type Task string

// Supported tasks. Values match the task names the registry stores in model metadata.
const (
	TaskChatCompletion Task = "chat.completions"
	TaskEmbedding      Task = "embeddings"
)

// Valid reports whether t is a known task.
func (t Task) Valid() bool {
	switch t {
	case TaskChatCompletion, TaskEmbedding:
		return true
	default:
		return false
	}
}

// Role is the message role in a prompt template (system, user, assistant).
type Role string

// Prompt message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is one role/content pair of a prompt template.
// Content uses {name} placeholders; {{ and }} are literal braces.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// ModelVersion is what a registry reports after a descriptor was logged.
type ModelVersion struct {
	Name    string // registered model name
	Version string // registry-assigned version, e.g. "3"
	Source  string // artifact source, e.g. runs:/<run_id>/model
	RunID   string
}

// Registry stores descriptors as named, versioned models.
// Implementations must not retry; errors are returned to the caller as-is.
type Registry interface {
	LogModel(ctx context.Context, d *ModelDescriptor) (*ModelVersion, error)
}
