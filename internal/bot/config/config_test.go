package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "*", c.Channel)
	assert.Equal(t, "!", c.CommandPrefix)
	assert.Equal(t, "ItemContent Activity", c.ActivityClass)
	assert.Equal(t, 10*time.Second, c.FetchTimeout)
	assert.Equal(t, "verified_forum_ids.txt", c.ForumIDLogPath)
	assert.NotNil(t, c.VerifyCookies)

	// platform identifiers have no defaults
	assert.Empty(t, c.BotToken)
	assert.Empty(t, c.GuildID)
	assert.Empty(t, c.VerifiedRoleID)

	// every template has a usable default
	assert.NotEmpty(t, c.Messages.Welcome)
	assert.NotEmpty(t, c.Messages.Help)
	assert.NotEmpty(t, c.Messages.InvalidLink)
	assert.NotEmpty(t, c.Messages.VerificationError)
	assert.NotEmpty(t, c.Messages.MissingProof)
	assert.NotEmpty(t, c.Messages.MalformedLink)
	assert.NotEmpty(t, c.Messages.DuplicateName)
	assert.NotEmpty(t, c.Messages.DuplicateNameMods)
	assert.NotEmpty(t, c.Messages.DuplicateForum)
	assert.NotEmpty(t, c.Messages.DuplicateForumMods)
	assert.NotEmpty(t, c.Messages.PrivateSuccess)
	assert.NotEmpty(t, c.Messages.PublicSuccess)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, "*", c.Channel)
	assert.Equal(t, 10*time.Second, c.FetchTimeout)
	assert.Equal(t, "verified_forum_ids.txt", c.ForumIDLogPath)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		vars map[string]string
		want string
	}{
		{
			name: "single placeholder",
			tmpl: "hello {name}",
			vars: map[string]string{"name": "alex"},
			want: "hello alex",
		},
		{
			name: "repeated placeholder",
			tmpl: "{id} and {id}",
			vars: map[string]string{"id": "42"},
			want: "42 and 42",
		},
		{
			name: "unknown placeholder left intact",
			tmpl: "hi {nope}",
			vars: map[string]string{"name": "alex"},
			want: "hi {nope}",
		},
		{
			name: "no vars",
			tmpl: "plain text",
			vars: nil,
			want: "plain text",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.tmpl, tt.vars))
		})
	}
}
