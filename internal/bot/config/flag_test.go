package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags_OverridesConfig(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin",
		"-t", "token-xyz",
		"-g", "111222333",
		"-n", "requests",
		"-m", "mods",
		"-r", "444555666",
		"-o", "777888999",
		"-p", "https://forum.example/profile/",
		"-l", "ids.txt",
		"-f", "30",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "token-xyz", cfg.BotToken)
	assert.Equal(t, "111222333", cfg.GuildID)
	assert.Equal(t, "requests", cfg.Channel)
	assert.Equal(t, "mods", cfg.ModChannel)
	assert.Equal(t, "444555666", cfg.VerifiedRoleID)
	assert.Equal(t, "777888999", cfg.ModRoleID)
	assert.Equal(t, "https://forum.example/profile/", cfg.VerifyURLPrefix)
	assert.Equal(t, "ids.txt", cfg.ForumIDLogPath)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
}

func Test_parseFlags_NoFlagsKeepDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "*", cfg.Channel)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
}
