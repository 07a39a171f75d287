// Command prefetch is the external prefetch CLI (§6.3): it loads a catalog
// file, warms up every locally-compiled alias eagerly, and skips remote
// aliases entirely. It also exposes a "catalog validate" convenience
// subcommand that checks a catalog file without warming anything up.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"modelhub/internal/catalog"
	"modelhub/internal/prefetchrun"
	"modelhub/internal/provider/httpdemo"
	"modelhub/internal/provider/localecho"
)

func newDirectory() *catalog.Directory {
	dir := catalog.NewDirectory()
	dir.Register(localecho.New())
	dir.Register(httpdemo.New())
	return dir
}

func main() {
	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var cacheDir string
	var dryRun bool

	root := &cobra.Command{
		Use:           "prefetch <catalog.json>",
		Short:         "Warm up every locally-compiled alias in a catalog",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := newDirectory()
			res, err := prefetchrun.Run(context.Background(), dir, args[0], cacheDir, dryRun)
			if err != nil {
				return err
			}
			for _, alias := range res.SkippedRemote {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped remote alias: %s\n", alias)
			}
			for _, alias := range res.Loaded {
				fmt.Fprintf(cmd.OutOrStdout(), "loaded: %s\n", alias)
			}
			return nil
		},
	}
	root.Flags().StringVar(&cacheDir, "cache-dir", os.Getenv("MODELHUB_CACHE_DIR"), "Cache directory for downloaded model weights (defaults to MODELHUB_CACHE_DIR)")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "Load and partition the catalog without warming up any provider")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Catalog utilities",
	}
	catalogValidate := &cobra.Command{
		Use:   "validate <catalog.json>",
		Short: "Validate a catalog file against a directory with every bundled provider registered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := newDirectory()
			specs, err := catalog.FromFile(args[0])
			if err != nil {
				return err
			}
			cat := catalog.New()
			for _, spec := range specs {
				if err := cat.Insert(spec, dir); err != nil {
					return fmt.Errorf("alias %q: %w", spec.Alias, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog valid: %d aliases\n", len(specs))
			return nil
		},
	}
	catalogCmd.AddCommand(catalogValidate)
	root.AddCommand(catalogCmd)

	return root
}
