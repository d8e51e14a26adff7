package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/skobelev/gatewarden/internal/flagx"
)

// Duration accepts both string values such as "10s" and integer nanoseconds
// when unmarshalled from JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// jsonConfig is an intermediate DTO used only for reading the JSON
// configuration file. After unmarshalling, its fields are copied into the
// runtime Config struct.
type jsonConfig struct {
	BotToken        string            `json:"bot_token"`
	Guild           string            `json:"guild"`
	Channel         string            `json:"channel"`
	ModChannel      string            `json:"mod_channel"`
	VerifiedRole    string            `json:"verified_role"`
	ModRole         string            `json:"mod_role"`
	CommandPrefix   string            `json:"command_prefix"`
	VerifyURLPrefix string            `json:"verify_url_prefix"`
	VerifyCookies   map[string]string `json:"verify_cookies"`
	ActivityClass   string            `json:"activity_class"`
	FetchTimeout    Duration          `json:"fetch_timeout"`
	ForumIDLog      string            `json:"forum_id_log"`

	WelcomeMessage          string `json:"welcome_message"`
	HelpMessage             string `json:"help_message"`
	InvalidLinkMessage      string `json:"invalid_link_message"`
	VerificationError       string `json:"verification_error"`
	MissingVerificationPost string `json:"missing_verification_post"`
	MalformedLinkMessage    string `json:"malformed_link_message"`
	DuplicateName           string `json:"verified_profile_duplicate_name"`
	DuplicateNameMods       string `json:"verified_profile_duplicate_name_mods"`
	DuplicateForum          string `json:"verified_profile_before"`
	DuplicateForumMods      string `json:"verified_profile_before_mods"`
	PrivateSuccess          string `json:"verified_private_message"`
	PublicSuccess           string `json:"verified_public_message"`
}

// parseJSON loads configuration values from a JSON file into the provided
// Config. The file path comes from the -c or -config command-line flags; if
// neither is set, no file is loaded. Only fields present in the file
// override defaults. If the file cannot be read or contains invalid JSON,
// the function panics: the bot must not start half-configured.
func parseJSON(config *Config) {

	jsonConfigFile := flagx.ConfigFilePath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &jsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIfNotEmpty(&config.BotToken, c.BotToken)
	setIfNotEmpty(&config.GuildID, c.Guild)
	setIfNotEmpty(&config.Channel, c.Channel)
	setIfNotEmpty(&config.ModChannel, c.ModChannel)
	setIfNotEmpty(&config.VerifiedRoleID, c.VerifiedRole)
	setIfNotEmpty(&config.ModRoleID, c.ModRole)
	setIfNotEmpty(&config.CommandPrefix, c.CommandPrefix)
	setIfNotEmpty(&config.VerifyURLPrefix, c.VerifyURLPrefix)
	setIfNotEmpty(&config.ActivityClass, c.ActivityClass)
	setIfNotEmpty(&config.ForumIDLogPath, c.ForumIDLog)
	if c.VerifyCookies != nil {
		config.VerifyCookies = c.VerifyCookies
	}
	if c.FetchTimeout.Duration != 0 {
		config.FetchTimeout = c.FetchTimeout.Duration
	}

	setIfNotEmpty(&config.Messages.Welcome, c.WelcomeMessage)
	setIfNotEmpty(&config.Messages.Help, c.HelpMessage)
	setIfNotEmpty(&config.Messages.InvalidLink, c.InvalidLinkMessage)
	setIfNotEmpty(&config.Messages.VerificationError, c.VerificationError)
	setIfNotEmpty(&config.Messages.MissingProof, c.MissingVerificationPost)
	setIfNotEmpty(&config.Messages.MalformedLink, c.MalformedLinkMessage)
	setIfNotEmpty(&config.Messages.DuplicateName, c.DuplicateName)
	setIfNotEmpty(&config.Messages.DuplicateNameMods, c.DuplicateNameMods)
	setIfNotEmpty(&config.Messages.DuplicateForum, c.DuplicateForum)
	setIfNotEmpty(&config.Messages.DuplicateForumMods, c.DuplicateForumMods)
	setIfNotEmpty(&config.Messages.PrivateSuccess, c.PrivateSuccess)
	setIfNotEmpty(&config.Messages.PublicSuccess, c.PublicSuccess)
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
