package config

import (
	"flag"
	"os"
	"time"

	"github.com/skobelev/gatewarden/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-t string   Discord bot token
//	-g string   guild ID
//	-n string   allowed channel ID or name ("*" for all)
//	-m string   moderator channel ID or name
//	-r string   verified role ID
//	-o string   moderator role ID
//	-p string   verification URL prefix
//	-l string   consumed forum ID log path
//	-f int      fetch timeout, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other components.
//   - The timeout flag is accepted as an integer in seconds and converted
//     to a time.Duration.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-t", "-g", "-n", "-m", "-r", "-o", "-p", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.BotToken, "t", config.BotToken, "Discord bot token")
	fs.StringVar(&config.GuildID, "g", config.GuildID, "guild ID")
	fs.StringVar(&config.Channel, "n", config.Channel, "allowed channel ID or name, * for all")
	fs.StringVar(&config.ModChannel, "m", config.ModChannel, "moderator channel ID or name")
	fs.StringVar(&config.VerifiedRoleID, "r", config.VerifiedRoleID, "verified role ID")
	fs.StringVar(&config.ModRoleID, "o", config.ModRoleID, "moderator role ID")
	fs.StringVar(&config.VerifyURLPrefix, "p", config.VerifyURLPrefix, "verification URL prefix")
	fs.StringVar(&config.ForumIDLogPath, "l", config.ForumIDLogPath, "consumed forum ID log path")

	fetchTimeout := fs.Int("f", int(config.FetchTimeout.Seconds()), "fetch timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.FetchTimeout = time.Duration(*fetchTimeout) * time.Second
}
