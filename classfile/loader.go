/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"os"
	"path/filepath"
	"strings"
)

// Loader is the external class-file loader consumed per §6: a function from
// internal class name (java/lang/String form) to an optional byte sequence.
// A false second result means "class not found" (the classloader.ClassTable
// turns that into ClassNotFound).
type Loader interface {
	Load(internalName string) ([]byte, bool)
}

// DirLoader reads "<root>/<internal/name>.class" across an ordered list of
// classpath roots, first match wins, mirroring jacobin's multi-classloader
// (AppCL/ExtensionCL/BootstrapCL) search order collapsed into one ordered
// root list, since a single VM instance owns exactly one interpreter thread
// and has no need for the three-loader delegation hierarchy.
type DirLoader struct {
	Roots []string
}

// NewDirLoader builds a DirLoader over the given classpath roots, in search order.
func NewDirLoader(roots ...string) *DirLoader {
	return &DirLoader{Roots: roots}
}

func (d *DirLoader) Load(internalName string) ([]byte, bool) {
	rel := filepath.FromSlash(internalName) + ".class"
	for _, root := range d.Roots {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err == nil {
			return data, true
		}
	}
	return nil, false
}

// MapLoader serves class bytes from an in-memory map, keyed by internal
// name. Used by tests and by embedders that assemble classes programmatically
// rather than reading them from disk.
type MapLoader map[string][]byte

func (m MapLoader) Load(internalName string) ([]byte, bool) {
	data, ok := m[internalName]
	return data, ok
}

// classNameFromPath strips a trailing ".class" and any leading classpath
// root, recovering the internal (slash-separated) class name from a file
// path.
func classNameFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = strings.TrimSuffix(rel, ".class")
	return filepath.ToSlash(rel)
}
