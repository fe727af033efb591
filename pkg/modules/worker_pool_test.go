package modules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hxinfer/pkg/parser"
	"hxinfer/pkg/source"
)

func TestWorkerPool(t *testing.T) {
	config := DefaultLoaderConfig()
	config.NumWorkers = 2
	pool := NewWorkerPool(config)

	require.Error(t, pool.Submit(&ParseJob{}), "not started")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Start(ctx))
	require.Error(t, pool.Start(ctx))
	assert.False(t, pool.HasActiveJobs())

	jobs := map[string]string{
		"app.Good": "package app;\nimport util.Tools;\nclass Good {}\n",
		"app.Bad":  "package app;\nclass Bad {\n",
	}
	for path, content := range jobs {
		require.NoError(t, pool.Submit(&ParseJob{
			ModulePath: path,
			Source:     source.NewSourceFile(path, "", content),
			Timestamp:  time.Now(),
		}))
	}

	results := map[string]*ParseResult{}
	for range jobs {
		select {
		case r := <-pool.Results():
			results[r.ModulePath] = r
		case <-ctx.Done():
			t.Fatal("timeout waiting for results")
		}
	}
	require.Len(t, results, 2)
	assert.Empty(t, results["app.Good"].Errors)
	assert.Equal(t, []string{"util.Tools"}, results["app.Good"].Dependencies)
	assert.NotEmpty(t, results["app.Bad"].Errors)
	assert.NotNil(t, results["app.Bad"].File)

	require.NoError(t, pool.Shutdown(ctx))
	require.Error(t, pool.Shutdown(ctx))
	stats := pool.Stats()
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 2, stats.TotalJobs)
	assert.Equal(t, 2, stats.CompletedJobs)
	assert.Equal(t, 1, stats.FailedJobs)
	assert.Zero(t, stats.ActiveJobs)
}

func TestDependencies(t *testing.T) {
	file, errs := parser.ParseString("Main.hx", `
package app;
import haxe.ds.Option;
import util.Strings.pad;
import util.*;
using util.Tools;
class Main<T> {
	var helper:Helper;
	var box:lib.Box<T>;
	var self:Main<Int>;
	var opt:Option<Int>;
}`)
	require.Empty(t, errs)
	deps, probes := dependencies(file)
	assert.Equal(t, []string{"haxe.ds.Option", "util.Strings", "util.Tools", "lib.Box"}, deps)
	assert.Equal(t, []string{"app.Helper", "app.Int"}, probes)
}
