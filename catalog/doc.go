// Package catalog resolves model descriptors by registered name across the built-in
// system models and a directory of YAML manifests (any fs.FS: os.DirFS or embed.FS).
package catalog
