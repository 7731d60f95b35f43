// Package bot routes prefix chat commands from Discord to the command set.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/commands"
	"github.com/Raikerian/go-discord-dj/internal/metrics"
)

const (
	queueSize        = 32
	seenMessagesSize = 256
	commandTimeout   = 30 * time.Second

	msgCommandFailed = "An error occurred while executing the command."
)

// Sender posts replies to a text channel.
type Sender interface {
	SendMessage(channelID discord.ChannelID, content string, embeds ...discord.Embed) (*discord.Message, error)
}

type job struct {
	cmd commands.Command
	inv commands.Invocation
}

// Bot parses prefix commands and runs them one at a time on a single
// dispatcher goroutine. The gateway handler only enqueues.
type Bot struct {
	sender  Sender
	cmds    *commands.CommandManager
	prefix  string
	guildID discord.GuildID
	metrics *metrics.Metrics
	logger  *zap.Logger

	seen  *lru.Cache[discord.MessageID, struct{}]
	queue chan job

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New creates a Bot. A valid guildID restricts it to that guild.
func New(sender Sender, cmds *commands.CommandManager, prefix string, guildID discord.GuildID, m *metrics.Metrics, logger *zap.Logger) (*Bot, error) {
	if prefix == "" {
		return nil, errors.New("command prefix is empty")
	}
	seen, err := lru.New[discord.MessageID, struct{}](seenMessagesSize)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Bot{
		sender:  sender,
		cmds:    cmds,
		prefix:  prefix,
		guildID: guildID,
		metrics: m,
		logger:  logger.Named("bot"),
		seen:    seen,
		queue:   make(chan job, queueSize),
	}, nil
}

// Start launches the dispatcher.
func (b *Bot) Start(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.dispatch(ctx, b.done)

	b.logger.Info("Bot started", zap.String("prefix", b.prefix), zap.Strings("commands", b.cmds.Names()))
	return nil
}

// Stop ends the dispatcher after the running command returns or ctx expires.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.stopped = true
	b.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		b.logger.Info("Bot stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleMessage is the gateway handler for message creation.
func (b *Bot) HandleMessage(e *gateway.MessageCreateEvent) {
	if e.Author.Bot || !e.GuildID.IsValid() {
		return
	}
	if b.guildID.IsValid() && e.GuildID != b.guildID {
		return
	}

	name, args, ok := b.parse(e.Content)
	if !ok {
		return
	}
	cmd, ok := b.cmds.GetCommand(name)
	if !ok {
		b.logger.Debug("Unknown command", zap.String("command", name))
		return
	}
	// Gateway resumes can replay events.
	if seen, _ := b.seen.ContainsOrAdd(e.ID, struct{}{}); seen {
		b.logger.Debug("Ignoring duplicate message", zap.Stringer("message_id", e.ID))
		return
	}

	b.mu.Lock()
	stopped := b.stopped
	b.mu.Unlock()
	if stopped {
		return
	}

	j := job{cmd: cmd, inv: commands.Invocation{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		UserID:    e.Author.ID,
		Args:      args,
	}}
	select {
	case b.queue <- j:
	default:
		b.logger.Warn("Command queue full, dropping command",
			zap.String("command", cmd.Name()),
			zap.Stringer("user_id", e.Author.ID))
	}
}

func (b *Bot) parse(content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, b.prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, b.prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (b *Bot) dispatch(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-b.queue:
			b.run(ctx, j)
		}
	}
}

func (b *Bot) run(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	name := j.cmd.Name()
	logger := b.logger.With(
		zap.String("command", name),
		zap.Stringer("guild_id", j.inv.GuildID),
		zap.Stringer("user_id", j.inv.UserID))
	logger.Info("Executing command")
	b.metrics.Commands.WithLabelValues(name).Inc()

	reply, err := j.cmd.Execute(ctx, j.inv)
	if err != nil {
		logger.Error("Error executing command", zap.Error(err))
		reply = msgCommandFailed
	}
	if reply == "" {
		return
	}
	if _, err := b.sender.SendMessage(j.inv.ChannelID, reply); err != nil {
		logger.Error("Failed to send reply", zap.Error(err))
	}
}
