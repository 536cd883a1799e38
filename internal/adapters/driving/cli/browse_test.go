package cli

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/tui/messages"
)

func stubProgram(t *testing.T, run func(ctx context.Context, model tea.Model) error) {
	t.Helper()
	original := runProgram
	runProgram = run
	t.Cleanup(func() { runProgram = original })
}

func TestBrowseCmd_HasLiveFlag(t *testing.T) {
	flag := browseCmd.Flags().Lookup("live")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestBrowseCmd_RunsApp(t *testing.T) {
	setupTestEngine(t)

	var got tea.Model
	stubProgram(t, func(_ context.Context, model tea.Model) error {
		got = model
		return nil
	})

	mustExecute(t, "browse")

	app, ok := got.(*tui.App)
	require.True(t, ok)
	assert.Equal(t, messages.ViewTypes, app.CurrentView())
}

func TestBrowseCmd_ProgramError(t *testing.T) {
	setupTestEngine(t)
	stubProgram(t, func(context.Context, tea.Model) error {
		return errors.New("no tty")
	})

	_, err := execute(t, context.Background(), "browse")
	assert.EqualError(t, err, "no tty")
}

func TestBrowseCmd_InterruptIsNotAnError(t *testing.T) {
	setupTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	stubProgram(t, func(context.Context, tea.Model) error {
		cancel()
		return tea.ErrProgramKilled
	})

	_, err := execute(t, ctx, "browse")
	assert.NoError(t, err)
}
