package modules

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"hxinfer/pkg/source"
)

// FileSystemResolver resolves modules below the root of a file system,
// typically one class path of the workspace.
type FileSystemResolver struct {
	name     string
	fsys     fs.FS
	baseDir  string // reported in resolved paths
	priority int
}

// NewFileSystemResolver resolves modules from fsys. baseDir is only used to
// build the paths reported in diagnostics.
func NewFileSystemResolver(fsys fs.FS, baseDir string) *FileSystemResolver {
	return &FileSystemResolver{
		name:     "FileSystem",
		fsys:     fsys,
		baseDir:  baseDir,
		priority: 100,
	}
}

// NewOSFileSystemResolver resolves modules below a directory on disk.
func NewOSFileSystemResolver(baseDir string) *FileSystemResolver {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = baseDir
	}
	r := NewFileSystemResolver(os.DirFS(abs), abs)
	r.name = "OSFileSystem"
	return r
}

func (r *FileSystemResolver) Name() string { return r.name }

func (r *FileSystemResolver) Priority() int { return r.priority }

// SetPriority changes the resolver's position in the chain.
func (r *FileSystemResolver) SetPriority(priority int) { r.priority = priority }

func (r *FileSystemResolver) Resolve(modulePath string) (*ResolvedModule, error) {
	candidates := candidateFiles(modulePath)
	for _, candidate := range candidates {
		info, err := fs.Stat(r.fsys, candidate)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := fs.ReadFile(r.fsys, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", candidate, err)
		}
		resolved := r.display(candidate)
		return &ResolvedModule{
			Path:         modulePath,
			ResolvedPath: resolved,
			Source:       source.FromFile(resolved, string(data)),
			Resolver:     r.name,
		}, nil
	}
	return nil, &NotFoundError{Path: modulePath, Tried: candidates}
}

// List walks the file system and returns the module path of every .hx file.
func (r *FileSystemResolver) List() ([]string, error) {
	var out []string
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if modulePath, ok := modulePathOf(p); ok {
			out = append(out, modulePath)
		}
		return nil
	})
	slices.Sort(out)
	return out, err
}

func (r *FileSystemResolver) display(p string) string {
	if r.baseDir == "" {
		return p
	}
	return filepath.Join(r.baseDir, filepath.FromSlash(p))
}
