package discord

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/skobelev/gatewarden/internal/bot/platform"
)

// handleAdminCommand runs the moderator chat commands. Non-moderators are
// ignored silently, matching the scope rules for everything else the bot
// declines to act on.
func (a *Adapter) handleAdminCommand(ctx context.Context, msg platform.Message) {
	member, err := a.Member(ctx, msg.AuthorID)
	if err != nil || !member.HasRole(a.cfg.ModRoleID) {
		return
	}

	cmd := strings.ToLower(strings.TrimPrefix(strings.Fields(msg.Text)[0], a.cfg.CommandPrefix))

	var reply string
	switch cmd {
	case "about":
		reply = a.aboutText()
	case "stats":
		reply = a.statsText()
	case "refresh":
		reply = a.refreshVerified(ctx)
	default:
		return
	}

	if err := a.SendChannel(ctx, msg.ChannelID, reply); err != nil {
		a.logger.Warn(ctx, "command reply delivery failed", "command", cmd, "error", err)
	}
}

func (a *Adapter) aboutText() string {
	version := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	return fmt.Sprintf("go version: %s\ndiscordgo version: %s\nbot version: %s",
		runtime.Version(), discordgo.VERSION, version)
}

func (a *Adapter) statsText() string {
	// strip sub-second noise from the uptime
	uptime := time.Since(a.started).Round(time.Second)
	return fmt.Sprintf("Bot uptime: %s\nVerified users: %d\nUnique forum profiles verified: %d",
		uptime, a.store.VerifiedCount(), a.store.ForumIDCount())
}

// refreshVerified re-derives the verified cache from live role membership
// and reports the diff.
func (a *Adapter) refreshVerified(ctx context.Context) string {
	members, err := a.Members(ctx)
	if err != nil {
		a.logger.Error(ctx, "refresh failed", "error", err)
		return "Verified cache refresh failed, see the logs"
	}

	var verified []string
	for _, m := range members {
		if m.HasRole(a.cfg.VerifiedRoleID) {
			verified = append(verified, m.UserID)
		}
	}

	added, removed := a.store.ReplaceVerified(verified)
	if added == 0 && removed == 0 {
		return "Verified cache refreshed (no changes)"
	}
	return fmt.Sprintf("Verified cache refreshed (%d added, %d removed)", added, removed)
}
