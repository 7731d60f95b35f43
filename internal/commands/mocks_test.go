package commands_test

import (
	"context"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/mock"

	"github.com/Raikerian/go-discord-dj/internal/commands"
	"github.com/Raikerian/go-discord-dj/internal/source"
)

type MockCommand struct {
	mock.Mock
}

func NewMockCommand(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCommand {
	m := &MockCommand{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCommand) Name() string {
	return m.Called().String(0)
}

func (m *MockCommand) Description() string {
	return m.Called().String(0)
}

func (m *MockCommand) Execute(ctx context.Context, inv commands.Invocation) (string, error) {
	args := m.Called(ctx, inv)
	return args.String(0), args.Error(1)
}

type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Join(ctx context.Context, g discord.GuildID, u discord.UserID) (discord.ChannelID, error) {
	args := m.Called(ctx, g, u)
	return args.Get(0).(discord.ChannelID), args.Error(1)
}

func (m *MockRelay) Leave(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRelay) Play(ctx context.Context, g discord.GuildID, u discord.UserID) (string, error) {
	args := m.Called(ctx, g, u)
	return args.String(0), args.Error(1)
}

func (m *MockRelay) Stop(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRelay) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockRelay) IsPlaying() bool {
	return m.Called().Bool(0)
}

func (m *MockRelay) Source() source.Source {
	src, _ := m.Called().Get(0).(source.Source)
	return src
}
