package modules

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	set "github.com/hashicorp/go-set/v3"

	"hxinfer/pkg/parser"
)

// WorkerPool parses modules on a fixed set of goroutines.
type WorkerPool struct {
	numWorkers   int
	jobBuffer    int
	resultBuffer int

	jobQueue   chan *ParseJob
	resultChan chan *ParseResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started    atomic.Bool
	stopped    atomic.Bool
	activeJobs atomic.Int32

	stats      WorkerPoolStats
	statsMutex sync.RWMutex
}

// NewWorkerPool creates a pool sized by config. It does nothing until Start.
func NewWorkerPool(config *LoaderConfig) *WorkerPool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		numWorkers:   numWorkers,
		jobBuffer:    config.JobBufferSize,
		resultBuffer: config.ResultBufferSize,
	}
}

// Start launches the workers. They stop when ctx is done or on Shutdown.
func (wp *WorkerPool) Start(ctx context.Context) error {
	if !wp.started.CompareAndSwap(false, true) {
		return fmt.Errorf("worker pool already started")
	}
	wp.ctx, wp.cancel = context.WithCancel(ctx)
	wp.jobQueue = make(chan *ParseJob, wp.jobBuffer)
	wp.resultChan = make(chan *ParseResult, wp.resultBuffer)
	wp.stats = WorkerPoolStats{WorkerCount: wp.numWorkers}

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run(i)
	}
	log.WithField("workers", wp.numWorkers).Debug("worker pool started")
	return nil
}

// Submit queues a job, blocking while the queue is full.
func (wp *WorkerPool) Submit(job *ParseJob) error {
	if !wp.started.Load() {
		return fmt.Errorf("worker pool not started")
	}
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool stopped")
	}
	wp.activeJobs.Add(1)
	select {
	case wp.jobQueue <- job:
		wp.statsMutex.Lock()
		wp.stats.TotalJobs++
		wp.statsMutex.Unlock()
		return nil
	case <-wp.ctx.Done():
		wp.activeJobs.Add(-1)
		return wp.ctx.Err()
	}
}

// Results delivers one result per submitted job.
func (wp *WorkerPool) Results() <-chan *ParseResult {
	return wp.resultChan
}

// Shutdown stops accepting jobs and waits for the workers to exit.
func (wp *WorkerPool) Shutdown(ctx context.Context) error {
	if !wp.stopped.CompareAndSwap(false, true) {
		return fmt.Errorf("worker pool already stopped")
	}
	close(wp.jobQueue)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		wp.cancel()
		close(wp.resultChan)
		return nil
	case <-ctx.Done():
		wp.cancel()
		return ctx.Err()
	}
}

// HasActiveJobs reports whether submitted jobs are still unanswered.
func (wp *WorkerPool) HasActiveJobs() bool {
	return wp.activeJobs.Load() > 0
}

func (wp *WorkerPool) Stats() WorkerPoolStats {
	wp.statsMutex.RLock()
	defer wp.statsMutex.RUnlock()
	stats := wp.stats
	stats.ActiveJobs = int(wp.activeJobs.Load())
	return stats
}

func (wp *WorkerPool) run(id int) {
	defer wp.wg.Done()
	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			result := processJob(id, job)

			wp.statsMutex.Lock()
			wp.stats.CompletedJobs++
			if len(result.Errors) > 0 {
				wp.stats.FailedJobs++
			}
			wp.stats.TotalTime += result.ParseDuration
			wp.stats.AverageTime = wp.stats.TotalTime / time.Duration(wp.stats.CompletedJobs)
			wp.statsMutex.Unlock()

			select {
			case wp.resultChan <- result:
				wp.activeJobs.Add(-1)
			case <-wp.ctx.Done():
				return
			}
		case <-wp.ctx.Done():
			return
		}
	}
}

func processJob(workerID int, job *ParseJob) *ParseResult {
	start := time.Now()
	file, errs := parser.ParseSource(job.Source)
	deps, probes := dependencies(file)
	return &ParseResult{
		ModulePath:    job.ModulePath,
		File:          file,
		Errors:        errs,
		Dependencies:  deps,
		Probes:        probes,
		ParseDuration: time.Since(start),
		WorkerID:      workerID,
	}
}

// dependencies lists the modules a file names through imports, usings and
// qualified type references. probes are unqualified type references that
// may live in the file's own package.
func dependencies(file *parser.File) (deps, probes []string) {
	seen := set.New[string](8)
	add := func(list *[]string, p string) {
		if p != "" && seen.Insert(p) {
			*list = append(*list, p)
		}
	}

	local := set.New[string](8)
	for _, d := range file.Decls {
		local.Insert(d.DeclName())
	}
	for _, imp := range file.Imports {
		if imp.Wildcard {
			continue
		}
		add(&deps, modulePathFor(imp.Path))
		local.Insert(imp.Path[len(imp.Path)-1])
		if imp.Alias != "" {
			local.Insert(imp.Alias)
		}
	}
	for _, u := range file.Usings {
		add(&deps, modulePathFor(u.Path))
		local.Insert(u.Path[len(u.Path)-1])
	}

	parser.Inspect(file, func(n parser.Node) bool {
		if tp, ok := n.(*parser.TypeParameter); ok {
			local.Insert(tp.Name.Value)
		}
		return true
	})
	parser.Inspect(file, func(n parser.Node) bool {
		ref, ok := n.(*parser.TypeReference)
		if !ok {
			return true
		}
		if len(ref.Path) > 1 {
			add(&deps, modulePathFor(ref.Path))
		} else if !local.Contains(ref.Name()) && len(file.Package) > 0 {
			add(&probes, file.PackageName()+"."+ref.Name())
		}
		return true
	})
	return deps, probes
}

// modulePathFor drops trailing field names from a dotted path so that
// `pack.Tools.helper` names the module `pack.Tools`.
func modulePathFor(parts []string) string {
	end := len(parts)
	for end > 0 && !isTypeName(parts[end-1]) {
		end--
	}
	return strings.Join(parts[:end], ".")
}
