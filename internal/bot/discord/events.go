package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/skobelev/gatewarden/internal/bot/classify"
	"github.com/skobelev/gatewarden/internal/bot/platform"
)

// onReady runs once per gateway connect: it learns the bot's own identity,
// rebuilds the verified cache from role membership and resolves the public
// and moderator channels by ID or name.
func (a *Adapter) onReady(s *discordgo.Session, r *discordgo.Ready) {
	ctx := context.Background()

	a.rules.SetSelfID(r.User.ID)

	members, err := a.Members(ctx)
	if err != nil {
		a.logger.Error(ctx, "building verified cache failed", "error", err)
	} else {
		var verified []string
		for _, m := range members {
			if m.HasRole(a.cfg.VerifiedRoleID) {
				verified = append(verified, m.UserID)
			}
		}
		a.store.ReplaceVerified(verified)
		a.logger.Info(ctx, "verified cache built",
			"guild_members", len(members),
			"verified_users", len(verified),
		)
	}

	publicID, modID := a.resolveChannels(ctx)
	a.svc.SetChannels(publicID, modID)

	a.logger.Info(ctx, "ready",
		"bot_user", r.User.Username,
		"bot_id", r.User.ID,
		"public_channel", publicID,
		"mod_channel", modID,
	)
}

// resolveChannels matches the configured channel settings against the
// guild's channel list. A wildcard channel setting resolves to no public
// channel, which disables public announcements.
func (a *Adapter) resolveChannels(ctx context.Context) (publicID, modID string) {
	channels, err := a.session.GuildChannels(a.cfg.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		a.logger.Error(ctx, "listing guild channels failed", "error", err)
		return "", ""
	}

	for _, ch := range channels {
		if a.cfg.Channel == ch.ID || a.cfg.Channel == ch.Name {
			publicID = ch.ID
		}
		if a.cfg.ModChannel != "" && (a.cfg.ModChannel == ch.ID || a.cfg.ModChannel == ch.Name) {
			modID = ch.ID
		}
	}
	return publicID, modID
}

// onMessageCreate classifies every inbound message and dispatches it.
// discordgo invokes handlers on their own goroutine, so verification
// attempts naturally run concurrently; the workflow serializes only the
// per-forum-ID commit sequence.
func (a *Adapter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx := context.Background()
	msg := a.toMessage(m)

	switch route := a.rules.Route(msg); route {
	case classify.Help:
		if err := a.svc.SendHelp(ctx, msg.AuthorID, msg.AuthorName, msg.Mention); err != nil {
			a.logger.Warn(ctx, "help delivery failed", "user_id", msg.AuthorID, "error", err)
		}
	case classify.Admin:
		a.handleAdminCommand(ctx, msg)
	case classify.Verify:
		if err := a.svc.Verify(ctx, msg); err != nil {
			a.logger.Error(ctx, "verification attempt failed internally",
				"user_id", msg.AuthorID, "error", err)
		}
	}
}

// onMemberJoin greets a new member: help instructions in a DM, welcome in
// the public channel.
func (a *Adapter) onMemberJoin(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.GuildID != a.cfg.GuildID || e.User == nil {
		return
	}

	ctx := context.Background()
	member := toMember(e.Member)
	a.logger.Info(ctx, "member joined", "user_id", member.UserID, "name", member.DisplayName)

	if err := a.svc.SendHelp(ctx, member.UserID, member.DisplayName, member.Mention); err != nil {
		a.logger.Warn(ctx, "join help delivery failed", "user_id", member.UserID, "error", err)
	}
	if err := a.svc.SendWelcome(ctx, member.UserID, member.DisplayName, member.Mention); err != nil {
		a.logger.Warn(ctx, "join welcome delivery failed", "user_id", member.UserID, "error", err)
	}
}

func (a *Adapter) toMessage(m *discordgo.MessageCreate) platform.Message {
	msg := platform.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Text:      m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.Mention = m.Author.Mention()
	}
	// the duplicate-name policy compares against member display names, so
	// the author's name must come from the same source: the guild nick
	// when one is set
	if m.Member != nil && m.Member.Nick != "" {
		msg.AuthorName = m.Member.Nick
	}
	if m.GuildID != "" {
		msg.ChannelName = a.channelName(m.ChannelID)
	}
	return msg
}
