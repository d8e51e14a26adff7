// Package platform defines the capability interfaces the verification
// workflow consumes from the chat platform. The workflow depends only on
// these abstractions, never on a concrete client.
package platform

import "context"

// Message is an inbound chat message, normalized from the platform event.
type Message struct {
	ID          string
	AuthorID    string
	AuthorName  string
	Mention     string // platform mention token for the author, e.g. "<@id>"
	GuildID     string // empty for direct messages
	ChannelID   string
	ChannelName string
	Text        string
}

// DM reports whether the message arrived in a direct conversation.
func (m Message) DM() bool {
	return m.GuildID == ""
}

// Member is a guild-membership record.
type Member struct {
	UserID      string
	DisplayName string
	Mention     string
	RoleIDs     []string
}

// HasRole reports whether the member holds the given role.
func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Notifier sends private and channel messages.
type Notifier interface {
	SendDirect(ctx context.Context, userID, text string) error
	SendChannel(ctx context.Context, channelID, text string) error
}

// MemberDirectory resolves users to membership records.
//
// Member returns common.ErrMemberNotFound when the user is not a current
// guild member.
type MemberDirectory interface {
	Member(ctx context.Context, userID string) (*Member, error)
	Members(ctx context.Context) ([]*Member, error)
}

// RoleGranter assigns a role to a guild member.
type RoleGranter interface {
	GrantRole(ctx context.Context, userID, roleID string) error
}
