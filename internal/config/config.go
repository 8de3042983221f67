package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func LoadConfig() {
	viper.SetConfigName("config")          // name of config file (without extension)
	viper.SetConfigType("yaml")            // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath("/etc/trailscan/") // path to look for the config file in
	viper.AddConfigPath(".")               // optionally look for config in the working directory
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error if desired
			log.Warn().Msg("Config file not found")
		} else {
			// Config file was found but another error was produced
			log.Panic().Err(err).Msg("Fatal error reading config file")
		}
	}
	SetDefaultConfig()
}

func SetDefaultConfig() {
	// Logging
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.console.format", "pretty") // if it's not pretty, just outputs json
	viper.SetDefault("logging.file.enabled", true)
	viper.SetDefault("logging.file.path", "trailscan.log")
	viper.SetDefault("logging.file.level", "info")

	// Navigation / client timeouts
	viper.SetDefault("navigation.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3")
	viper.SetDefault("navigation.connect_timeout", 3)
	viper.SetDefault("navigation.read_write_timeout", 10)
	viper.SetDefault("navigation.max_redirects", 10)
	viper.SetDefault("navigation.proxy", "")

	// Scan
	viper.SetDefault("scan.threads", 50)
	viper.SetDefault("scan.mode", "TrailMerge")
	viper.SetDefault("scan.flush_interval", 120)
	viper.SetDefault("scan.checkpoint_path", "checkpoint")
	viper.SetDefault("scan.verbose", false)
}
