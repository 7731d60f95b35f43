package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/commands"
)

func TestNewCommandManager(t *testing.T) {
	t.Run("SuccessWithUniqueCommands", func(t *testing.T) {
		mockCmd1 := NewMockCommand(t)
		mockCmd1.On("Name").Return("join")

		mockCmd2 := NewMockCommand(t)
		mockCmd2.On("Name").Return("Play")

		cm := commands.NewCommandManager(commands.CommandManagerParams{
			Logger:   zap.NewNop(),
			Commands: []commands.Command{mockCmd1, mockCmd2},
		})
		require.NotNil(t, cm)

		retCmd1, ok := cm.GetCommand("join")
		assert.True(t, ok)
		assert.Equal(t, mockCmd1, retCmd1)

		retCmd2, ok := cm.GetCommand("PLAY")
		assert.True(t, ok)
		assert.Equal(t, mockCmd2, retCmd2)

		_, ok = cm.GetCommand("nonexistent")
		assert.False(t, ok)
		assert.Equal(t, []string{"join", "play"}, cm.Names())
	})

	t.Run("NoCommands", func(t *testing.T) {
		cm := commands.NewCommandManager(commands.CommandManagerParams{Logger: zap.NewNop()})
		require.NotNil(t, cm)

		_, ok := cm.GetCommand("any")
		assert.False(t, ok)
	})

	t.Run("NilCommandInSlice", func(t *testing.T) {
		mockCmd1 := NewMockCommand(t)
		mockCmd1.On("Name").Return("valid")

		cm := commands.NewCommandManager(commands.CommandManagerParams{
			Logger:   zap.NewNop(),
			Commands: []commands.Command{nil, mockCmd1, nil},
		})

		retCmd1, ok := cm.GetCommand("valid")
		assert.True(t, ok)
		assert.Equal(t, mockCmd1, retCmd1)
		assert.Len(t, cm.Names(), 1)
	})

	t.Run("DuplicateCommandNames", func(t *testing.T) {
		mockCmd1a := NewMockCommand(t)
		mockCmd1a.On("Name").Return("dup")

		mockCmd1b := NewMockCommand(t)
		mockCmd1b.On("Name").Return("dup")

		cm := commands.NewCommandManager(commands.CommandManagerParams{
			Logger:   zap.NewNop(),
			Commands: []commands.Command{mockCmd1a, mockCmd1b},
		})

		retCmdDup, ok := cm.GetCommand("dup")
		assert.True(t, ok)
		assert.Same(t, mockCmd1a, retCmdDup)
	})

	t.Run("NilLogger", func(t *testing.T) {
		mockCmd1 := NewMockCommand(t)
		mockCmd1.On("Name").Return("testlog")

		cm := commands.NewCommandManager(commands.CommandManagerParams{
			Commands: []commands.Command{mockCmd1},
		})
		require.NotNil(t, cm)

		_, ok := cm.GetCommand("testlog")
		assert.True(t, ok)
	})
}
