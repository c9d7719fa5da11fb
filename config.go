package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"userbot/internal/core/dispatch"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const envPrefix = "USERBOT"

func setDefaults() {
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("bot.prefixes", ".")
	viper.SetDefault("bot.language", "en")
	viper.SetDefault("handler.timeout", dispatch.DefaultTimeout.String())
	viper.SetDefault("handler.notice_delay", dispatch.DefaultNoticeDelay.String())
	viper.SetDefault("transport.max_length", dispatch.DefaultMaxLength)
	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.path", "userbot.db")
	viper.SetDefault("openrouter.model", "openai/gpt-4.1-mini")
	viper.SetDefault("ask.conversation_ttl", "10m")
	viper.SetDefault("ask.timeout", "2m")
	viper.SetDefault("log.max_size_mb", 10)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age_days", 28)
}

// loadConfig reads the TOML config and sets up logging. The log level is
// reloaded whenever the file changes.
func loadConfig(file string) error {
	setDefaults()

	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}
	viper.SetConfigType("toml")
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	log.Info().Msg("reading config file...")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	setupLogging()

	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config file changed")
		zerolog.SetGlobalLevel(logLevel(viper.GetString("bot.log_level")))
	})
	viper.WatchConfig()

	return nil
}

func logLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return level
}

func setupLogging() {
	zerolog.SetGlobalLevel(logLevel(viper.GetString("bot.log_level")))

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	if file := viper.GetString("log.file"); file != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    viper.GetInt("log.max_size_mb"),
			MaxBackups: viper.GetInt("log.max_backups"),
			MaxAge:     viper.GetInt("log.max_age_days"),
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func duration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s in config: %w", key, err)
	}

	return d, nil
}

func dispatchConfig() (dispatch.Config, error) {
	timeout, err := duration("handler.timeout")
	if err != nil {
		return dispatch.Config{}, err
	}

	noticeDelay, err := duration("handler.notice_delay")
	if err != nil {
		return dispatch.Config{}, err
	}

	return dispatch.Config{
		Timeout:       timeout,
		NoticeDelay:   noticeDelay,
		MaxLength:     viper.GetInt("transport.max_length"),
		TracebackChat: viper.GetInt64("dispatch.traceback_chat"),
	}, nil
}
