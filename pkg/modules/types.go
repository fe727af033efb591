// Package modules discovers and parses the Haxe modules a workspace needs
// and hands them to the index. A module is one .hx file named after its
// dotted path, so `haxe.ds.Option` lives in `haxe/ds/Option.hx`.
package modules

import (
	"runtime"
	"time"

	"hxinfer/pkg/errors"
	"hxinfer/pkg/parser"
	"hxinfer/pkg/source"
)

// ModuleState tracks a module through loading.
type ModuleState int

const (
	ModuleUnknown  ModuleState = iota
	ModuleResolved             // source located
	ModuleParsing              // queued or being parsed
	ModuleParsed               // syntax tree available
	ModuleIndexed              // handed to the index
	ModuleError                // could not be resolved or read
)

func (s ModuleState) String() string {
	switch s {
	case ModuleUnknown:
		return "unknown"
	case ModuleResolved:
		return "resolved"
	case ModuleParsing:
		return "parsing"
	case ModuleParsed:
		return "parsed"
	case ModuleIndexed:
		return "indexed"
	case ModuleError:
		return "error"
	default:
		return "invalid"
	}
}

// ModuleRecord is the registry entry for one module.
type ModuleRecord struct {
	Path         string // dotted module path
	ResolvedPath string // file path reported by the resolver
	Resolver     string
	State        ModuleState

	Source *source.SourceFile
	File   *parser.File
	Errors []errors.ErrorRecord // syntax errors
	Err    error                // resolution failure

	// Dependencies lists the module paths named by imports and usings.
	Dependencies []string

	ParseDuration time.Duration
	WorkerID      int
}

// ResolvedModule is what a resolver returns for a module path.
type ResolvedModule struct {
	Path         string
	ResolvedPath string
	Source       *source.SourceFile
	Resolver     string
}

// ParseJob asks a worker to parse one module.
type ParseJob struct {
	ModulePath string
	Source     *source.SourceFile
	Timestamp  time.Time
}

// ParseResult is a worker's answer to a ParseJob.
type ParseResult struct {
	ModulePath    string
	File          *parser.File
	Errors        []errors.ErrorRecord
	Dependencies  []string
	Probes        []string // same-package guesses, loaded only when found
	ParseDuration time.Duration
	WorkerID      int
}

// LoaderConfig tunes the parse worker pool.
type LoaderConfig struct {
	NumWorkers       int
	JobBufferSize    int
	ResultBufferSize int
}

// DefaultLoaderConfig uses one worker per CPU.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		NumWorkers:       runtime.NumCPU(),
		JobBufferSize:    64,
		ResultBufferSize: 64,
	}
}

// WorkerPoolStats summarizes the work done by a pool.
type WorkerPoolStats struct {
	WorkerCount   int
	TotalJobs     int
	CompletedJobs int
	FailedJobs    int // jobs whose file had syntax errors
	ActiveJobs    int
	TotalTime     time.Duration
	AverageTime   time.Duration
}

// RegistryStats reports registry usage.
type RegistryStats struct {
	Size   int
	Hits   int
	Misses int
}

// LoaderStats aggregates what a loader has done so far.
type LoaderStats struct {
	Loaded   int // modules handed to the index
	NotFound int
	Registry RegistryStats
	Pool     WorkerPoolStats
}
