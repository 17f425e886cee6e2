// Package cli implements the modelsync command line: register the fixed system models,
// poll the registry, and preview model templates locally.
package cli
