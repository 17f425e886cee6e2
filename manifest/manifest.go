// Package manifest parses model descriptor manifests (YAML) into modelsync.ModelDescriptor.
// A manifest names the provider model, task, registered name, optional artifact path and
// the prompt messages. ParseDir loads every manifest under a directory of an fs.FS.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/skosovsky/modelsync"

	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest indicates a manifest that is malformed or describes an invalid descriptor.
var ErrInvalidManifest = errors.New("manifest: manifest file is malformed")

// fileManifest is the YAML manifest shape bound directly to domain types.
type fileManifest struct {
	Model          string              `yaml:"model"`
	Task           modelsync.Task      `yaml:"task"`
	RegisteredName string              `yaml:"registered_name"`
	ArtifactPath   string              `yaml:"artifact_path"`
	Messages       []modelsync.Message `yaml:"messages"`
}

// ParseBytes parses a YAML manifest and returns a validated descriptor.
func ParseBytes(data []byte) (*modelsync.ModelDescriptor, error) {
	var m fileManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return buildDescriptor(&m)
}

// ParseFile reads and parses a manifest file.
func ParseFile(path string) (*modelsync.ModelDescriptor, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is chosen by the operator
	if err != nil {
		return nil, fmt.Errorf("manifest: read file: %w", err)
	}
	return ParseBytes(data)
}

// ParseFS reads and parses a manifest from fs.FS (e.g. embed.FS or os.DirFS).
func ParseFS(fsys fs.FS, name string) (*modelsync.ModelDescriptor, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read fs: %w", err)
	}
	return ParseBytes(data)
}

// ParseDir walks root in fsys and parses every .yaml/.yml file in lexical order.
// Other files are ignored. The first invalid manifest aborts the walk.
func ParseDir(fsys fs.FS, root string) ([]*modelsync.ModelDescriptor, error) {
	var out []*modelsync.ModelDescriptor
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || (!strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml")) {
			return nil
		}
		desc, err := ParseFS(fsys, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, desc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func buildDescriptor(m *fileManifest) (*modelsync.ModelDescriptor, error) {
	if m.RegisteredName == "" {
		return nil, fmt.Errorf("%w: missing registered_name", ErrInvalidManifest)
	}
	if m.Model == "" {
		return nil, fmt.Errorf("%w: %q: missing model", ErrInvalidManifest, m.RegisteredName)
	}
	var opts []modelsync.DescriptorOption
	if len(m.Messages) > 0 {
		opts = append(opts, modelsync.WithMessages(m.Messages...))
	}
	if m.ArtifactPath != "" {
		opts = append(opts, modelsync.WithArtifactPath(m.ArtifactPath))
	}
	d, err := modelsync.NewModelDescriptor(m.Model, m.Task, m.RegisteredName, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return d, nil
}
