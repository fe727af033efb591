package modules

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"hxinfer/pkg/errors"
	"hxinfer/pkg/index"
	"hxinfer/pkg/parser"
)

var log = logrus.WithField("pkg", "modules")

// Loader resolves modules and their dependencies, parses them in parallel
// and indexes each batch once it is complete.
type Loader struct {
	index     *index.Index
	config    *LoaderConfig
	resolvers []ModuleResolver
	registry  *Registry

	// mu serializes loads, the index is not safe for concurrent writes.
	mu       sync.Mutex
	loaded   int
	notFound int
	pool     WorkerPoolStats
}

// NewLoader creates a loader feeding ix. A nil config uses the defaults.
func NewLoader(ix *index.Index, config *LoaderConfig, resolvers ...ModuleResolver) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	l := &Loader{
		index:    ix,
		config:   config,
		registry: NewRegistry(),
	}
	for _, r := range resolvers {
		l.AddResolver(r)
	}
	return l
}

// AddResolver inserts r into the chain, ordered by priority.
func (l *Loader) AddResolver(r ModuleResolver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolvers = append(l.resolvers, r)
	slices.SortStableFunc(l.resolvers, func(a, b ModuleResolver) int {
		return a.Priority() - b.Priority()
	})
}

func (l *Loader) Index() *index.Index { return l.index }

func (l *Loader) Registry() *Registry { return l.registry }

// Module returns the record of a module seen by an earlier load.
func (l *Loader) Module(modulePath string) *ModuleRecord {
	return l.registry.Get(modulePath)
}

// Load makes the named modules and everything they depend on available in
// the index. Modules the index already knows by name, such as the prelude,
// are not loaded again. The returned records follow the order of
// modulePaths; a module that could not be resolved has State ModuleError.
func (l *Loader) Load(ctx context.Context, modulePaths ...string) ([]*ModuleRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading canceled: %w", err)
	}
	start := time.Now()
	pool := NewWorkerPool(l.config)
	if err := pool.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("worker pool shutdown")
		}
		l.pool = pool.Stats()
	}()

	var (
		batch    []*ModuleRecord
		pending  []*ParseJob
		inFlight int
		limit    = max(1, l.config.JobBufferSize)
	)
	enqueue := func(modulePath string, probe bool) {
		if modulePath == "" || l.registry.Get(modulePath) != nil {
			return
		}
		if _, ok := l.index.ClassByName(modulePath); ok {
			return
		}
		resolved, err := l.resolve(modulePath)
		if err != nil {
			if probe {
				return
			}
			l.notFound++
			l.registry.Set(modulePath, &ModuleRecord{Path: modulePath, State: ModuleError, Err: err})
			log.WithField("module", modulePath).Debug("not found")
			return
		}
		if known := l.registry.ByFile(resolved.ResolvedPath); known != nil {
			l.registry.Set(modulePath, known)
			return
		}
		record := &ModuleRecord{
			Path:         modulePath,
			ResolvedPath: resolved.ResolvedPath,
			Resolver:     resolved.Resolver,
			Source:       resolved.Source,
			State:        ModuleParsing,
		}
		l.registry.Set(modulePath, record)
		batch = append(batch, record)
		pending = append(pending, &ParseJob{ModulePath: modulePath, Source: resolved.Source, Timestamp: time.Now()})
	}

	for _, p := range modulePaths {
		enqueue(p, false)
	}
	for len(pending) > 0 || inFlight > 0 {
		if ctx.Err() != nil {
			return nil, l.abort(ctx, batch)
		}
		for len(pending) > 0 && inFlight < limit {
			if err := pool.Submit(pending[0]); err != nil {
				l.abort(ctx, batch)
				return nil, fmt.Errorf("submitting %s: %w", pending[0].ModulePath, err)
			}
			pending = pending[1:]
			inFlight++
		}
		select {
		case result := <-pool.Results():
			inFlight--
			l.registry.SetParsed(result)
			for _, dep := range result.Dependencies {
				enqueue(dep, false)
			}
			for _, probe := range result.Probes {
				enqueue(probe, true)
			}
		case <-ctx.Done():
			return nil, l.abort(ctx, batch)
		}
	}

	l.index.Add(l.collect(batch))
	for _, record := range batch {
		record.State = ModuleIndexed
	}
	l.loaded += len(batch)
	log.WithFields(logrus.Fields{
		"requested": len(modulePaths),
		"parsed":    len(batch),
		"elapsed":   time.Since(start),
	}).Debug("load complete")

	out := make([]*ModuleRecord, 0, len(modulePaths))
	for _, p := range modulePaths {
		if record := l.registry.Get(p); record != nil {
			out = append(out, record)
		}
	}
	return out, nil
}

// LoadAll loads every module the listing resolvers know about.
func (l *Loader) LoadAll(ctx context.Context) ([]*ModuleRecord, error) {
	l.mu.Lock()
	var paths []string
	for _, r := range l.resolvers {
		lister, ok := r.(ModuleLister)
		if !ok {
			continue
		}
		listed, err := lister.List()
		if err != nil {
			l.mu.Unlock()
			return nil, fmt.Errorf("listing %s: %w", r.Name(), err)
		}
		for _, p := range listed {
			if !slices.Contains(paths, p) {
				paths = append(paths, p)
			}
		}
	}
	l.mu.Unlock()
	return l.Load(ctx, paths...)
}

// Stats reports what the loader has done so far.
func (l *Loader) Stats() LoaderStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LoaderStats{
		Loaded:   l.loaded,
		NotFound: l.notFound,
		Registry: l.registry.Stats(),
		Pool:     l.pool,
	}
}

func (l *Loader) resolve(modulePath string) (*ResolvedModule, error) {
	var tried []string
	for _, r := range l.resolvers {
		resolved, err := r.Resolve(modulePath)
		if err == nil {
			return resolved, nil
		}
		var nf *NotFoundError
		if !stderrors.As(err, &nf) {
			return nil, err
		}
		tried = append(tried, nf.Tried...)
	}
	return nil, &NotFoundError{Path: modulePath, Tried: tried}
}

// abort forgets the unindexed part of a batch so a later load retries it.
func (l *Loader) abort(ctx context.Context, batch []*ModuleRecord) error {
	for _, record := range batch {
		l.registry.Remove(record.Path)
	}
	return fmt.Errorf("loading canceled: %w", ctx.Err())
}

// collect orders the batch by module path so indexing does not depend on
// which worker finished first.
func (l *Loader) collect(batch []*ModuleRecord) ([]*parser.File, []errors.ErrorRecord) {
	sorted := slices.Clone(batch)
	slices.SortFunc(sorted, func(a, b *ModuleRecord) int {
		return strings.Compare(a.Path, b.Path)
	})
	files := make([]*parser.File, 0, len(sorted))
	var errs []errors.ErrorRecord
	for _, record := range sorted {
		files = append(files, record.File)
		errs = append(errs, record.Errors...)
	}
	return files, errs
}
