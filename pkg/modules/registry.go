package modules

import (
	"maps"
	"slices"
	"sync"
)

// Registry caches module records by module path. A sub-type path that
// lives in an already known file shares that file's record.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*ModuleRecord
	byFile  map[string]*ModuleRecord
	stats   RegistryStats
}

func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]*ModuleRecord),
		byFile:  make(map[string]*ModuleRecord),
	}
}

// Get returns the record for a module path, or nil.
func (r *Registry) Get(modulePath string) *ModuleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.modules[modulePath]
	if record != nil {
		r.stats.Hits++
	} else {
		r.stats.Misses++
	}
	return record
}

// Set stores record under modulePath and, once resolved, under its file.
func (r *Registry) Set(modulePath string, record *ModuleRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[modulePath] = record
	if record.ResolvedPath != "" {
		r.byFile[record.ResolvedPath] = record
	}
}

// ByFile returns the record already holding a resolved file.
func (r *Registry) ByFile(resolvedPath string) *ModuleRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byFile[resolvedPath]
}

// SetParsed copies a worker's result into the module's record.
func (r *Registry) SetParsed(result *ParseResult) *ModuleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.modules[result.ModulePath]
	if record == nil {
		record = &ModuleRecord{Path: result.ModulePath}
		r.modules[result.ModulePath] = record
	}
	record.File = result.File
	record.Errors = result.Errors
	record.Dependencies = result.Dependencies
	record.ParseDuration = result.ParseDuration
	record.WorkerID = result.WorkerID
	record.State = ModuleParsed
	return record
}

// UpdateState moves a module to a new state.
func (r *Registry) UpdateState(modulePath string, state ModuleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record := r.modules[modulePath]; record != nil {
		record.State = state
	}
}

func (r *Registry) Remove(modulePath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.modules[modulePath]
	if record == nil {
		return
	}
	delete(r.modules, modulePath)
	if r.byFile[record.ResolvedPath] == record {
		delete(r.byFile, record.ResolvedPath)
	}
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = make(map[string]*ModuleRecord)
	r.byFile = make(map[string]*ModuleRecord)
	r.stats = RegistryStats{}
}

// List returns the known module paths in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.modules))
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// ByState returns the distinct records in a state, sorted by path.
func (r *Registry) ByState(state ModuleState) []*ModuleRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*ModuleRecord
	for _, p := range slices.Sorted(maps.Keys(r.modules)) {
		record := r.modules[p]
		if record.State == state && record.Path == p {
			out = append(out, record)
		}
	}
	return out
}

// Dependents lists the modules whose imports name modulePath.
func (r *Registry) Dependents(modulePath string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, p := range slices.Sorted(maps.Keys(r.modules)) {
		record := r.modules[p]
		if record.Path == p && slices.Contains(record.Dependencies, modulePath) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := r.stats
	stats.Size = len(r.modules)
	return stats
}
