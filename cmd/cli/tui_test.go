package cli

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskModel_QuitCancelsRunningCall(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	}

	for _, key := range keys {
		t.Run(key.String(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			model := newTaskModel("Loading...", func() (any, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}, cancel)

			updated, cmd := model.Update(key)
			require.NotNil(t, cmd)
			assert.ErrorIs(t, ctx.Err(), context.Canceled)

			result := updated.(taskModel).result
			require.NotNil(t, result)
			assert.ErrorIs(t, result.err, errCancelled)
			assert.Empty(t, updated.View())
		})
	}
}

func TestTaskModel_ResultQuits(t *testing.T) {
	model := newTaskModel("Loading...", func() (any, error) { return 3, nil }, nil)

	updated, cmd := model.Update(taskResult{value: 3})
	require.NotNil(t, cmd)

	result := updated.(taskModel).result
	require.NotNil(t, result)
	assert.Equal(t, 3, result.value)
	assert.NoError(t, result.err)

	// Other keys leave the call running
	updated, cmd = newTaskModel("Loading...", nil, nil).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
	assert.Nil(t, updated.(taskModel).result)
}
