package modules

import (
	"fmt"
	"path"
	"strings"
	"unicode"
)

// ModuleResolver locates the source of a module by its dotted path.
type ModuleResolver interface {
	// Name identifies the resolver in records and logs.
	Name() string

	// Priority orders resolvers; lower values are consulted first.
	Priority() int

	// Resolve returns the module source or a *NotFoundError.
	Resolve(modulePath string) (*ResolvedModule, error)
}

// ModuleLister is implemented by resolvers that can enumerate their modules.
type ModuleLister interface {
	List() ([]string, error)
}

// NotFoundError reports a module path no resolver could locate.
type NotFoundError struct {
	Path  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("module not found: %s", e.Path)
	}
	return fmt.Sprintf("module not found: %s (tried %s)", e.Path, strings.Join(e.Tried, ", "))
}

// candidateFiles lists the files a module path may live in, best first.
// A path whose last segments name sub-types (`pack.Module.SubType`) falls
// back to the file of the enclosing module.
func candidateFiles(modulePath string) []string {
	parts := strings.Split(modulePath, ".")
	var out []string
	for i := len(parts); i >= 1; i-- {
		if !isTypeName(parts[i-1]) {
			break
		}
		out = append(out, path.Join(parts[:i]...)+".hx")
	}
	return out
}

// modulePathOf is the inverse of candidateFiles for a module file.
func modulePathOf(file string) (string, bool) {
	if path.Ext(file) != ".hx" {
		return "", false
	}
	trimmed := strings.TrimSuffix(path.Clean(file), ".hx")
	parts := strings.Split(trimmed, "/")
	if !isTypeName(parts[len(parts)-1]) {
		return "", false
	}
	return strings.Join(parts, "."), true
}

func isTypeName(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
