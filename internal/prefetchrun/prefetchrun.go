// Package prefetchrun implements the prefetch CLI's behavior (§6.3): load a
// catalog file, drop every remote alias, force eager+required warmup on the
// rest, and build a runtime against the given provider directory. It is
// split out from cmd/prefetch so it can be unit tested without a process
// boundary.
package prefetchrun

import (
	"context"
	"os"
	"strings"

	"modelhub/internal/cache"
	"modelhub/internal/catalog"
	"modelhub/internal/runtime"
	"modelhub/pkg/types"
)

// Result summarizes one prefetch run.
type Result struct {
	Loaded        []string
	SkippedRemote []string
}

// Run loads catalogPath, partitions its entries by provider locality
// (skipping every "remote/"-prefixed provider_id), forces eager+required
// warmup on the rest, and builds a runtime against dir. If dryRun is true,
// the catalog is loaded and partitioned but no provider is warmed up and no
// runtime is built.
func Run(ctx context.Context, dir *catalog.Directory, catalogPath, cacheDir string, dryRun bool) (Result, error) {
	var res Result

	if cacheDir != "" {
		os.Setenv(cache.RootEnv, cacheDir)
	}

	specs, err := catalog.FromFile(catalogPath)
	if err != nil {
		return res, err
	}

	var local []*types.AliasSpec
	for _, spec := range specs {
		if strings.HasPrefix(spec.ProviderID, "remote/") {
			res.SkippedRemote = append(res.SkippedRemote, spec.Alias)
			continue
		}
		spec.Warmup = types.WarmupEager
		spec.Required = true
		local = append(local, spec)
		res.Loaded = append(res.Loaded, spec.Alias)
	}

	if dryRun {
		return res, nil
	}

	builder := runtime.NewBuilder().WithCatalog(local)
	for _, p := range dir.All() {
		builder = builder.WithProvider(p)
	}

	if _, err := builder.Build(ctx); err != nil {
		return res, err
	}

	return res, nil
}
