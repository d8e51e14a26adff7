// Package discord adapts the Discord gateway to the platform capability
// interfaces the workflow consumes, and owns everything Discord-specific:
// event translation, channel/role discovery at connect time, the welcome
// flow and the moderator chat commands.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/skobelev/gatewarden/internal/bot/classify"
	"github.com/skobelev/gatewarden/internal/bot/config"
	"github.com/skobelev/gatewarden/internal/bot/identity"
	"github.com/skobelev/gatewarden/internal/bot/platform"
	"github.com/skobelev/gatewarden/internal/bot/workflow"
	"github.com/skobelev/gatewarden/internal/common"
	"github.com/skobelev/gatewarden/internal/logging"
)

const membersPageSize = 1000

// Adapter connects one gateway session to the verification workflow. It
// implements platform.Notifier, platform.MemberDirectory and
// platform.RoleGranter.
type Adapter struct {
	session *discordgo.Session
	cfg     *config.Config
	store   *identity.Store
	svc     *workflow.Service
	rules   *classify.Rules
	logger  logging.Logger
	started time.Time
}

// New builds the adapter and the underlying session. The workflow service
// must be attached with SetWorkflow before Open, since the service itself
// is constructed with the adapter as its collaborator.
func New(cfg *config.Config, store *identity.Store, logger logging.Logger) (*Adapter, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Adapter{
		session: session,
		cfg:     cfg,
		store:   store,
		logger:  logger,
		rules: &classify.Rules{
			GuildID:       cfg.GuildID,
			Channel:       cfg.Channel,
			ModChannel:    cfg.ModChannel,
			CommandPrefix: cfg.CommandPrefix,
			Verified:      store,
		},
	}, nil
}

// SetWorkflow attaches the workflow service. Must be called before Open.
func (a *Adapter) SetWorkflow(svc *workflow.Service) {
	a.svc = svc
}

// Open registers the event handlers and connects to the gateway.
func (a *Adapter) Open(ctx context.Context) error {
	if a.svc == nil {
		return fmt.Errorf("workflow service not attached")
	}

	a.started = time.Now()
	a.session.AddHandler(a.onReady)
	a.session.AddHandler(a.onMessageCreate)
	a.session.AddHandler(a.onMemberJoin)

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("opening gateway session: %w", err)
	}
	a.logger.Info(ctx, "gateway session opened")
	return nil
}

// Close disconnects from the gateway.
func (a *Adapter) Close() error {
	return a.session.Close()
}

// ---- platform.Notifier ----

func (a *Adapter) SendDirect(ctx context.Context, userID, text string) error {
	ch, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening DM channel to %s: %w", userID, err)
	}
	if _, err := a.session.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending DM to %s: %w", userID, err)
	}
	return nil
}

func (a *Adapter) SendChannel(ctx context.Context, channelID, text string) error {
	if _, err := a.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending to channel %s: %w", channelID, err)
	}
	return nil
}

// ---- platform.MemberDirectory ----

func (a *Adapter) Member(ctx context.Context, userID string) (*platform.Member, error) {
	if m, err := a.session.State.Member(a.cfg.GuildID, userID); err == nil {
		return toMember(m), nil
	}
	m, err := a.session.GuildMember(a.cfg.GuildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrMemberNotFound, userID)
	}
	return toMember(m), nil
}

func (a *Adapter) Members(ctx context.Context) ([]*platform.Member, error) {
	var out []*platform.Member

	after := ""
	for {
		batch, err := a.session.GuildMembers(a.cfg.GuildID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing guild members: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		for _, m := range batch {
			out = append(out, toMember(m))
		}
		after = batch[len(batch)-1].User.ID
		if len(batch) < membersPageSize {
			break
		}
	}

	return out, nil
}

// ---- platform.RoleGranter ----

func (a *Adapter) GrantRole(ctx context.Context, userID, roleID string) error {
	if err := a.session.GuildMemberRoleAdd(a.cfg.GuildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("adding role %s to %s: %w", roleID, userID, err)
	}
	return nil
}

// ---- helpers ----

func toMember(m *discordgo.Member) *platform.Member {
	name := m.Nick
	if name == "" && m.User != nil {
		name = m.User.Username
	}
	mention := ""
	userID := ""
	if m.User != nil {
		userID = m.User.ID
		mention = m.User.Mention()
	}
	return &platform.Member{
		UserID:      userID,
		DisplayName: name,
		Mention:     mention,
		RoleIDs:     m.Roles,
	}
}

func (a *Adapter) channelName(id string) string {
	if ch, err := a.session.State.Channel(id); err == nil {
		return ch.Name
	}
	if ch, err := a.session.Channel(id); err == nil {
		return ch.Name
	}
	return ""
}
