package systemmodels

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/openai/openai-go/v3"

	"github.com/skosovsky/modelsync"
)

// Registered names of the assistant's built-in models.
const (
	QueryTime  = "querytime"
	Chat       = "chat"
	Embeddings = "embeddings"
)

const (
	querytimeUserTemplate = "INPUT: {query}"
	chatUserTemplate      = "SENSOR DATA:\n{state_lines}\n\nQUERY: {query}"
)

// Descriptors returns the built-in descriptors in registration order: querytime, chat, embeddings.
// Each call returns fresh values.
func Descriptors() []*modelsync.ModelDescriptor {
	return []*modelsync.ModelDescriptor{
		mustDescriptor(string(openai.ChatModelGPT3_5Turbo), modelsync.TaskChatCompletion, QueryTime,
			modelsync.WithMessages(
				modelsync.Message{Role: modelsync.RoleSystem, Content: querytimePrompt},
				modelsync.Message{Role: modelsync.RoleUser, Content: querytimeUserTemplate},
			),
		),
		mustDescriptor(string(openai.ChatModelGPT3_5Turbo), modelsync.TaskChatCompletion, Chat,
			modelsync.WithMessages(
				modelsync.Message{Role: modelsync.RoleSystem, Content: summarizationPrompt},
				modelsync.Message{Role: modelsync.RoleUser, Content: chatUserTemplate},
			),
		),
		mustDescriptor(string(openai.EmbeddingModelTextEmbeddingAda002), modelsync.TaskEmbedding, Embeddings,
			modelsync.WithArtifactPath("embeddings"),
		),
	}
}

// Lookup returns the built-in descriptor registered under name.
func Lookup(name string) (*modelsync.ModelDescriptor, bool) {
	for _, d := range Descriptors() {
		if d.RegisteredName == name {
			return d, true
		}
	}
	return nil, false
}

func mustDescriptor(model string, task modelsync.Task, name string, opts ...modelsync.DescriptorOption) *modelsync.ModelDescriptor {
	d, err := modelsync.NewModelDescriptor(model, task, name, opts...)
	if err != nil {
		panic(fmt.Sprintf("systemmodels: built-in descriptor %q: %v", name, err))
	}
	return d
}

// Option configures Register.
type Option func(*registerOptions)

type registerOptions struct {
	logger log.Interface
	extra  []*modelsync.ModelDescriptor
}

// WithLogger sets the logger for per-model progress. Default is the apex/log package logger.
func WithLogger(l log.Interface) Option {
	return func(o *registerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithExtra appends descriptors (e.g. loaded from manifests) registered after the built-in ones.
func WithExtra(descs ...*modelsync.ModelDescriptor) Option {
	return func(o *registerOptions) {
		o.extra = append(o.extra, descs...)
	}
}

// Register submits the built-in descriptors, then any extra ones, to reg one at a time.
// It returns an empty, non-nil map on success. An extra descriptor that reuses a built-in
// name fails with modelsync.ErrInvalidName before anything is submitted. The first
// registry error is returned unchanged; remaining descriptors are not submitted.
func Register(ctx context.Context, reg modelsync.Registry, opts ...Option) (map[string]string, error) {
	o := registerOptions{logger: log.Log}
	for _, opt := range opts {
		opt(&o)
	}
	for _, d := range o.extra {
		if _, ok := Lookup(d.RegisteredName); ok {
			return nil, fmt.Errorf("%w: %q is reserved for a built-in model", modelsync.ErrInvalidName, d.RegisteredName)
		}
	}
	descs := append(Descriptors(), o.extra...)
	for _, d := range descs {
		logger := o.logger.WithFields(log.Fields{
			"registered_name": d.RegisteredName,
			"model":           d.Model,
			"task":            d.Task,
		})
		mv, err := reg.LogModel(ctx, d)
		if err != nil {
			logger.WithError(err).Error("register model failed")
			return nil, err
		}
		if mv != nil {
			logger = logger.WithField("version", mv.Version)
		}
		logger.Info("registered model")
	}
	return map[string]string{}, nil
}
