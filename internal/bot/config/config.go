// Package config handles configuration for the bot,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Messages holds the user-facing message templates. Templates may use the
// {name}, {mention_name}, {id}, {link} and {forum_id} placeholders; see
// Expand.
type Messages struct {
	Welcome            string
	Help               string
	InvalidLink        string
	VerificationError  string
	MissingProof       string
	MalformedLink      string
	DuplicateName      string
	DuplicateNameMods  string
	DuplicateForum     string
	DuplicateForumMods string
	PrivateSuccess     string
	PublicSuccess      string
}

// Config holds runtime settings for the bot.
//
// Fields:
//   - BotToken: Discord bot token.
//   - GuildID: the one guild the bot manages.
//   - Channel: allowed channel ID or name; "*" accepts every channel.
//     The resolved channel doubles as the public announcement channel.
//   - ModChannel: moderator channel ID or name (also always allowed).
//   - VerifiedRoleID / ModRoleID: role identifiers on the guild.
//   - CommandPrefix: prefix for chat commands ("!").
//   - VerifyURLPrefix: forum profile URL prefix a verification link must carry.
//   - VerifyCookies: static session cookies sent with every profile fetch.
//   - ActivityClass: CSS class of forum activity-post content blocks.
//   - FetchTimeout: upper bound on one profile fetch.
//   - ForumIDLogPath: append-only log of consumed forum identifiers.
type Config struct {
	BotToken        string
	GuildID         string
	Channel         string
	ModChannel      string
	VerifiedRoleID  string
	ModRoleID       string
	CommandPrefix   string
	VerifyURLPrefix string
	VerifyCookies   map[string]string
	ActivityClass   string
	FetchTimeout    time.Duration
	ForumIDLogPath  string
	Messages        Messages
}

// LoadDefaults populates Config with defaults. Platform identifiers (token,
// guild, channels, roles) have no sensible defaults and must be supplied by
// the JSON file or flags.
func (c *Config) LoadDefaults() {
	c.Channel = "*"
	c.CommandPrefix = "!"
	c.VerifyCookies = map[string]string{}
	c.ActivityClass = "ItemContent Activity"
	c.FetchTimeout = 10 * time.Second
	c.ForumIDLogPath = "verified_forum_ids.txt"
	c.Messages = Messages{
		Welcome:            "Welcome {mention_name}! Please verify your forum account to get access.",
		Help:               "Hi {name}! To verify, post a message containing the word Discord and your ID {id} on your forum profile, then paste your profile link here.",
		InvalidLink:        "That does not look like a verification link. Please post a link to your forum profile.",
		VerificationError:  "Something went wrong while checking your profile. Please try again later.",
		MissingProof:       "I could not find a verification post on that profile. Make sure it contains the word Discord and your ID {id}.",
		MalformedLink:      "I could not find a profile number in that link. Please post a direct link to your forum profile.",
		DuplicateName:      "Someone on this server already uses your name. A moderator will verify you manually.",
		DuplicateNameMods:  " NOTE: there are multiple users named {name}, please verify manually.",
		DuplicateForum:     "That forum account has already been used for verification. A moderator will verify you manually.",
		DuplicateForumMods: " NOTE: this forum account was used before, please verify manually.",
		PrivateSuccess:     "You are verified now. Welcome!",
		PublicSuccess:      "{mention_name} is now verified (forum profile {forum_id}).",
	}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
