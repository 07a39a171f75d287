package prefetchrun

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"modelhub/internal/catalog"
	"modelhub/internal/provider/localecho"
	"modelhub/pkg/types"
)

func writeCatalog(t *testing.T, specs []*types.AliasSpec) string {
	t.Helper()
	data, err := json.Marshal(specs)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSkipsRemoteAliases(t *testing.T) {
	specs := []*types.AliasSpec{
		{Alias: "embed/local", Task: types.TaskEmbed, ProviderID: "local/echo", ModelID: "echo-embed"},
		{Alias: "embed/remote", Task: types.TaskEmbed, ProviderID: "remote/httpdemo", ModelID: "remote-embed",
			Options: map[string]any{"endpoint": "http://example.invalid"}},
	}
	path := writeCatalog(t, specs)

	dir := catalog.NewDirectory()
	dir.Register(localecho.New())

	res, err := Run(context.Background(), dir, path, "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Loaded) != 1 || res.Loaded[0] != "embed/local" {
		t.Fatalf("Loaded = %v, want [embed/local]", res.Loaded)
	}
	if len(res.SkippedRemote) != 1 || res.SkippedRemote[0] != "embed/remote" {
		t.Fatalf("SkippedRemote = %v, want [embed/remote]", res.SkippedRemote)
	}
}

func TestRunBuildsLocalAliasesEagerly(t *testing.T) {
	specs := []*types.AliasSpec{
		{Alias: "embed/local", Task: types.TaskEmbed, ProviderID: "local/echo", ModelID: "echo-embed"},
	}
	path := writeCatalog(t, specs)

	dir := catalog.NewDirectory()
	dir.Register(localecho.New())

	res, err := Run(context.Background(), dir, path, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Loaded) != 1 {
		t.Fatalf("Loaded = %v", res.Loaded)
	}
}

func TestRunReturnsErrorOnMissingCatalog(t *testing.T) {
	dir := catalog.NewDirectory()
	if _, err := Run(context.Background(), dir, "/nonexistent/catalog.json", "", true); err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}
