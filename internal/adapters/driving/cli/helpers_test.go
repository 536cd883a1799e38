package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/memory"
	memsource "github.com/custodia-labs/docgraph/internal/connectors/memory"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/services"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// testDefs declares users with a nested posts collection.
func testDefs() []domain.CollectionDefinition {
	return []domain.CollectionDefinition{{
		Path:  domain.MustParsePath("users"),
		Slug:  domain.SlugSelector{Field: "name"},
		Watch: true,
		Children: []domain.CollectionDefinition{{
			PathFunc: func(parent *domain.DocumentRecord) (domain.Path, error) {
				return parent.Ref.Child("posts"), nil
			},
		}},
	}}
}

// setupTestEngine replaces newEngine with an engine over an in-memory
// source and store. It returns the source so tests can change documents.
func setupTestEngine(t *testing.T) *memsource.Source {
	t.Helper()

	source := memsource.New()
	source.MustPut("users/alice", map[string]domain.Value{"name": domain.String("Alice")})
	source.MustPut("users/bob", map[string]domain.Value{"name": domain.String("Bob")})
	source.MustPut("users/alice/posts/p1", map[string]domain.Value{"title": domain.String("Hello")})

	original := newEngine
	newEngine = func(_ context.Context, opts engineOptions) (*engine, error) {
		settings := domain.DefaultSettings()
		settings.IgnoreImages = true
		settings.LiveSync = opts.liveSync

		store := memory.NewContentStore()
		loader, err := services.NewLoader(settings, testDefs(), services.Collaborators{
			Source: source,
			Store:  store,
		})
		if err != nil {
			return nil, err
		}
		return &engine{
			settings: settings,
			loader:   loader,
			graph:    services.NewGraphService(store),
			store:    store,
		}, nil
	}
	t.Cleanup(func() { newEngine = original })
	return source
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	// Subcommands keep the context of their first run.
	rootCmd.SetContext(ctx)
	for _, c := range rootCmd.Commands() {
		c.SetContext(ctx)
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		logger.SetOutput(os.Stderr)
	})

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, context.Background(), args...)
	require.NoError(t, err)
	return out
}
