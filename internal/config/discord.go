package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type DiscordConfig struct {
	Token           string `env:"DISCORD_TOKEN, required"`
	GuildID         string `env:"DISCORD_GUILD_ID"`
	RunBotGlobally  bool   `env:"DISCORD_RUN_BOT_GLOBALLY"`
	SaveSchedules   bool   `env:"DISCORD_SAVE_SCHEDULES, default=true"`
	NotifyChannelID string `env:"DISCORD_NOTIFY_CHANNEL_ID"`
}

func NewDiscordConfigFromEnv() (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.GuildID == "" && !cfg.RunBotGlobally {
		return nil, fmt.Errorf("refusing to register commands without a guild ID unless DISCORD_RUN_BOT_GLOBALLY is set to true")
	}

	return &cfg, nil
}

// CommandGuildID is the guild slash commands are registered in.
// The empty string registers them globally.
func (c *DiscordConfig) CommandGuildID() string {
	if c.RunBotGlobally {
		return ""
	}
	return c.GuildID
}
