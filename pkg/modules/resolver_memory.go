package modules

import (
	"maps"
	"slices"
	"sync"
	"time"

	"hxinfer/pkg/source"
)

// MemoryResolver serves modules held in memory, such as unsaved editor
// buffers. It is consulted before the file system by default.
type MemoryResolver struct {
	name     string
	mu       sync.RWMutex
	modules  map[string]*MemoryModule // keyed by file path
	priority int
}

// MemoryModule is one in-memory file.
type MemoryModule struct {
	Path     string
	Content  string
	Modified time.Time
}

func NewMemoryResolver(name string) *MemoryResolver {
	if name == "" {
		name = "Memory"
	}
	return &MemoryResolver{
		name:     name,
		modules:  make(map[string]*MemoryModule),
		priority: 50,
	}
}

func (r *MemoryResolver) Name() string { return r.name }

func (r *MemoryResolver) Priority() int { return r.priority }

func (r *MemoryResolver) SetPriority(priority int) { r.priority = priority }

func (r *MemoryResolver) Resolve(modulePath string) (*ResolvedModule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := candidateFiles(modulePath)
	for _, candidate := range candidates {
		if m, ok := r.modules[candidate]; ok {
			return &ResolvedModule{
				Path:         modulePath,
				ResolvedPath: m.Path,
				Source:       source.NewSourceFile(m.Path, m.Path, m.Content),
				Resolver:     r.name,
			}, nil
		}
	}
	return nil, &NotFoundError{Path: modulePath, Tried: candidates}
}

// AddModule stores or replaces the file at path, e.g. "pack/Foo.hx".
func (r *MemoryResolver) AddModule(path, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[path] = &MemoryModule{Path: path, Content: content, Modified: time.Now()}
}

func (r *MemoryResolver) RemoveModule(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, path)
}

// List returns the module paths of the stored files.
func (r *MemoryResolver) List() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, p := range slices.Sorted(maps.Keys(r.modules)) {
		if modulePath, ok := modulePathOf(p); ok {
			out = append(out, modulePath)
		}
	}
	return out, nil
}
