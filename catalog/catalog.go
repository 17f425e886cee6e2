package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/skosovsky/modelsync"
	"github.com/skosovsky/modelsync/manifest"
	"github.com/skosovsky/modelsync/systemmodels"
)

// ErrModelNotFound indicates no built-in or manifest model has the requested name.
var ErrModelNotFound = errors.New("catalog: model not found")

// Catalog loads manifests lazily on first use and caches them until Reload.
// Built-in models shadow manifests with the same registered name.
type Catalog struct {
	fsys     fs.FS
	root     string
	builtins bool

	mu        sync.RWMutex
	loaded    bool
	manifests []*modelsync.ModelDescriptor
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithManifests adds the *.yaml / *.yml manifests found below root in fsys.
func WithManifests(fsys fs.FS, root string) Option {
	return func(c *Catalog) {
		c.fsys = fsys
		c.root = root
	}
}

// WithoutBuiltins leaves the system models out of lookups and listings.
func WithoutBuiltins() Option {
	return func(c *Catalog) { c.builtins = false }
}

// New creates a Catalog. Nothing is read until the first lookup.
func New(opts ...Option) *Catalog {
	c := &Catalog{builtins: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the descriptor registered under name.
func (c *Catalog) Get(ctx context.Context, name string) (*modelsync.ModelDescriptor, error) {
	if err := modelsync.ValidateName(name); err != nil {
		return nil, err
	}
	if c.builtins {
		if d, ok := systemmodels.Lookup(name); ok {
			return d, nil
		}
	}
	manifests, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range manifests {
		if d.RegisteredName == name {
			return d.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
}

// Manifests returns copies of the manifest descriptors in lexical file order.
func (c *Catalog) Manifests(ctx context.Context) ([]*modelsync.ModelDescriptor, error) {
	manifests, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*modelsync.ModelDescriptor, len(manifests))
	for i, d := range manifests {
		out[i] = d.Clone()
	}
	return out, nil
}

// List returns the built-in models followed by the manifest models.
func (c *Catalog) List(ctx context.Context) ([]*modelsync.ModelDescriptor, error) {
	manifests, err := c.Manifests(ctx)
	if err != nil {
		return nil, err
	}
	if !c.builtins {
		return manifests, nil
	}
	return append(systemmodels.Descriptors(), manifests...), nil
}

// Reload drops the cached manifests; the next lookup reads them again.
func (c *Catalog) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.manifests = nil
}

func (c *Catalog) load(ctx context.Context) ([]*modelsync.ModelDescriptor, error) {
	c.mu.RLock()
	if c.loaded {
		manifests := c.manifests
		c.mu.RUnlock()
		return manifests, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.manifests, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if c.fsys != nil {
		manifests, err := manifest.ParseDir(c.fsys, c.root)
		if err != nil {
			return nil, err
		}
		c.manifests = manifests
	}
	c.loaded = true
	return c.manifests, nil
}
