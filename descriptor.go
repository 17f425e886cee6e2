package modelsync

import (
	"context"
	"fmt"
	"slices"
)

// DefaultArtifactPath is the artifact path used when none is configured.
const DefaultArtifactPath = "model"

// ModelDescriptor is a prompt model submitted to a Registry: provider model id, task,
// prompt template and the name it is registered under.
// Use NewModelDescriptor to construct. Fields must not be mutated after construction.
type ModelDescriptor struct {
	Model          string
	Task           Task
	Messages       []Message
	ArtifactPath   string
	RegisteredName string
	parsed         []parsedMessage
}

// NewModelDescriptor builds a validated descriptor with defensive copies and applies options.
// Returns ErrInvalidName, ErrInvalidDescriptor or ErrTemplateParse.
func NewModelDescriptor(model string, task Task, registeredName string, opts ...DescriptorOption) (*ModelDescriptor, error) {
	d := &ModelDescriptor{
		Model:          model,
		Task:           task,
		RegisteredName: registeredName,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.Messages = slices.Clone(d.Messages)
	if d.ArtifactPath == "" {
		d.ArtifactPath = DefaultArtifactPath
	}
	if err := ValidateName(registeredName); err != nil {
		return nil, err
	}
	if model == "" {
		return nil, fmt.Errorf("%w: %q: missing model", ErrInvalidDescriptor, registeredName)
	}
	switch task {
	case TaskChatCompletion:
		if len(d.Messages) == 0 {
			return nil, fmt.Errorf("%w: %q: chat task requires messages", ErrInvalidDescriptor, registeredName)
		}
	case TaskEmbedding:
		if len(d.Messages) > 0 {
			return nil, fmt.Errorf("%w: %q: embedding task takes no messages", ErrInvalidDescriptor, registeredName)
		}
	default:
		return nil, fmt.Errorf("%w: %q: unknown task %q", ErrInvalidDescriptor, registeredName, task)
	}
	d.parsed = make([]parsedMessage, 0, len(d.Messages))
	for i, m := range d.Messages {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: %q: message %d: invalid role %q", ErrInvalidDescriptor, registeredName, i, m.Role)
		}
		segs, err := parseTemplate(m.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: message %d: %w", ErrTemplateParse, registeredName, i, err)
		}
		d.parsed = append(d.parsed, parsedMessage{role: m.Role, segments: segs, vars: placeholderNames(segs)})
	}
	return d, nil
}

// ValidateName checks that a registered name is non-empty and uses only letters, digits, '_', '-' and '.'.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	return nil
}

// Clone returns a copy of the descriptor with its own Messages slice.
func (d *ModelDescriptor) Clone() *ModelDescriptor {
	if d == nil {
		return nil
	}
	out := *d
	out.Messages = slices.Clone(d.Messages)
	return &out
}

// Variables returns the placeholder names used across all messages, in order of first appearance.
func (d *ModelDescriptor) Variables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, pm := range d.parsed {
		for _, name := range pm.vars {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Format renders the messages with vars substituted for placeholders. It is a local
// preview of what the registry-served model sends; no model is called.
func (d *ModelDescriptor) Format(ctx context.Context, vars map[string]string) ([]Message, error) {
	for _, name := range d.Variables() {
		if _, ok := vars[name]; !ok {
			return nil, &VariableError{Variable: name, Descriptor: d.RegisteredName, Err: ErrMissingVariable}
		}
	}
	out := make([]Message, 0, len(d.parsed))
	for _, pm := range d.parsed {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out = append(out, Message{Role: pm.role, Content: renderSegments(pm.segments, vars)})
	}
	return out, nil
}
