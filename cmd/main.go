package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/BlueprintTeam/Blueprint-Daemon/internal"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	_ = godotenv.Load()

	configuration := flag.String("configuration", "blueprint.yaml", "path to the configuration file")
	operation := flag.String("operation", "", "backup, restore or rebuild")
	guild := flag.Int64("guild", 0, "guild id to operate on")
	channel := flag.Int64("channel", 0, "channel id to rebuild (rebuild only)")
	flag.Parse()

	writer := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stdout},
		&lumberjack.Logger{
			Filename:   "logs/blueprint.log",
			MaxSize:    25,
			MaxBackups: 3,
			MaxAge:     7,
		},
	)

	logger := zerolog.New(writer).With().Timestamp().Logger()

	bp, err := internal.NewBlueprint(writer, internal.BlueprintOptions{
		ConfigurationLocation: *configuration,
		Token:                 os.Getenv("BLUEPRINT_TOKEN"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create blueprint")
	}

	internal.RegisterMetrics()

	if address := bp.Configuration.PrometheusAddress; address != "" {
		go func() {
			if err := http.ListenAndServe(address, promhttp.Handler()); err != nil {
				logger.Error().Err(err).Msg("Failed to serve prometheus")
			}
		}()
	}

	if *guild == 0 {
		logger.Fatal().Msg("A guild id is required")
	}

	ctx := context.Background()
	guildID := discord.Snowflake(*guild)

	var status string

	switch *operation {
	case "backup":
		status, err = bp.Backup(ctx, guildID)
	case "restore":
		status, err = bp.Restore(ctx, guildID)
	case "rebuild":
		if *channel == 0 {
			logger.Fatal().Msg("A channel id is required to rebuild")
		}

		status, err = bp.RebuildChannel(ctx, guildID, discord.Snowflake(*channel))
	default:
		logger.Fatal().Str("operation", *operation).Msg("Unknown operation")
	}

	if err != nil {
		logger.Fatal().Err(err).Msg("Operation failed")
	}

	logger.Info().Msg(status)
}
