// Package classify decides whether an inbound message enters the
// verification workflow at all. Classification is pure: no side effects, no
// I/O.
package classify

import (
	"strings"
	"sync"

	"github.com/skobelev/gatewarden/internal/bot/platform"
)

// Route is the classification verdict for one message.
type Route int

const (
	// Ignore drops the message silently.
	Ignore Route = iota
	// Help routes to the help responder.
	Help
	// Admin routes to the moderator command dispatcher.
	Admin
	// Verify routes into the verification workflow.
	Verify
)

func (r Route) String() string {
	switch r {
	case Help:
		return "help"
	case Admin:
		return "admin"
	case Verify:
		return "verify"
	default:
		return "ignore"
	}
}

// VerifiedChecker is the read-only view of the verified set the classifier
// needs for its short-circuit.
type VerifiedChecker interface {
	IsVerified(userID string) bool
}

var adminCommands = map[string]struct{}{
	"about":   {},
	"stats":   {},
	"refresh": {},
}

var helpCommands = map[string]struct{}{
	"help":  {},
	"hello": {},
}

// Rules is the configured classification policy.
type Rules struct {
	GuildID       string
	Channel       string // allowed channel ID or name; "*" accepts all
	ModChannel    string
	CommandPrefix string
	Verified      VerifiedChecker

	// the bot's own user ID is only known once the gateway reports it,
	// and ready fires again on reconnect while message handlers keep
	// running on their own goroutines
	mu     sync.RWMutex
	selfID string
}

// SetSelfID records the bot's own user ID. Safe to call concurrently with
// Route.
func (r *Rules) SetSelfID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selfID = id
}

func (r *Rules) self() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selfID
}

// Route classifies one message. Rules apply in order: messages from the bot
// itself are always ignored; direct messages are never ignored; guild
// messages must come from the configured guild and an allowed channel;
// a help trigger wins over everything else; admin commands go to the
// dispatcher; already-verified authors are silently ignored; everything
// else is a verification attempt.
func (r *Rules) Route(msg platform.Message) Route {
	if self := r.self(); self != "" && msg.AuthorID == self {
		return Ignore
	}

	if !msg.DM() && !r.channelAllowed(msg) {
		return Ignore
	}

	switch cmd := r.command(msg.Text); {
	case cmd == "":
		// not a command
	case isHelpCommand(cmd):
		return Help
	case isAdminCommand(cmd):
		return Admin
	}

	if r.Verified != nil && r.Verified.IsVerified(msg.AuthorID) {
		return Ignore
	}

	return Verify
}

func (r *Rules) channelAllowed(msg platform.Message) bool {
	if msg.GuildID != r.GuildID {
		return false
	}
	if r.Channel == "*" {
		return true
	}
	if r.Channel == msg.ChannelID || r.Channel == msg.ChannelName {
		return true
	}
	if r.ModChannel != "" && (r.ModChannel == msg.ChannelID || r.ModChannel == msg.ChannelName) {
		return true
	}
	return false
}

// command returns the lowercased first word without the command prefix, or
// "" when the message does not start with a command.
func (r *Rules) command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	first := fields[0]
	if r.CommandPrefix == "" || !strings.HasPrefix(first, r.CommandPrefix) {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(first, r.CommandPrefix))
}

func isHelpCommand(cmd string) bool {
	_, ok := helpCommands[cmd]
	return ok
}

func isAdminCommand(cmd string) bool {
	_, ok := adminCommands[cmd]
	return ok
}
