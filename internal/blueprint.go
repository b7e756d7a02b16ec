package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"gopkg.in/yaml.v3"
)

// VERSION follows semantic versioning.
const VERSION = "1.2.0"

var UserAgent = fmt.Sprintf("Blueprint/%s (https://github.com/BlueprintTeam/Blueprint-Daemon)", VERSION)

// Blueprint is the snapshot and restore engine. The external command router
// calls its Backup, Restore and RebuildChannel entry points; everything
// else is internal plumbing behind them.
type Blueprint struct {
	Logger zerolog.Logger

	ConfigurationLocation string

	Configuration BlueprintConfiguration

	Client *Client
	Store  *SnapshotStore

	// Guards the documented single-writer-per-guild assumption at the
	// entry points: only one destructive operation runs at a time.
	operationActive *atomic.Bool
}

// BlueprintConfiguration represents the configuration file.
type BlueprintConfiguration struct {
	// Directory holding one snapshot file per guild.
	SnapshotDirectory string `yaml:"snapshot_directory"`

	// When true, a restore aborts its remaining work on the first per
	// entity failure instead of continuing best effort. The server stays
	// in its partial state either way; no rollback path exists.
	StrictRestore bool `yaml:"strict_restore"`

	PrometheusAddress string `yaml:"prometheus_address"`

	// Gateway tuning. Zero values fall back to the defaults.
	PaceDelayMs   int `yaml:"pace_delay_ms"`
	BackoffBaseMs int `yaml:"backoff_base_ms"`
	MaxRetries    int `yaml:"max_retries"`
}

// BlueprintOptions represents any options passable when creating the
// blueprint service.
type BlueprintOptions struct {
	ConfigurationLocation string
	Token                 string
}

// NewBlueprint creates the application state and initializes it. A missing
// token aborts the whole feature at startup rather than per call.
func NewBlueprint(logger io.Writer, options BlueprintOptions) (bp *Blueprint, err error) {
	if options.Token == "" {
		return nil, ErrMissingToken
	}

	bp = &Blueprint{
		Logger: zerolog.New(logger).With().Timestamp().Logger(),

		ConfigurationLocation: options.ConfigurationLocation,

		operationActive: atomic.NewBool(false),
	}

	configuration, err := bp.LoadConfiguration(options.ConfigurationLocation)
	if err != nil {
		return nil, err
	}

	bp.Configuration = configuration

	bp.Client = NewClient(options.Token, bp.Logger)

	if configuration.PaceDelayMs > 0 {
		bp.Client.PaceDelay = time.Duration(configuration.PaceDelayMs) * time.Millisecond
	}

	if configuration.BackoffBaseMs > 0 {
		bp.Client.BackoffBase = time.Duration(configuration.BackoffBaseMs) * time.Millisecond
	}

	if configuration.MaxRetries > 0 {
		bp.Client.MaxRetries = configuration.MaxRetries
	}

	bp.Store = NewSnapshotStore(configuration.SnapshotDirectory)

	return bp, nil
}

// LoadConfiguration handles loading the configuration file.
func (bp *Blueprint) LoadConfiguration(path string) (configuration BlueprintConfiguration, err error) {
	bp.Logger.Debug().
		Str("path", path).
		Msg("Loading configuration")

	defer func() {
		if err == nil {
			bp.Logger.Info().Msg("Configuration loaded")
		}
	}()

	file, err := os.ReadFile(path)
	if err != nil {
		return configuration, ErrReadConfigurationFailure
	}

	err = yaml.Unmarshal(file, &configuration)
	if err != nil {
		return configuration, ErrLoadConfigurationFailure
	}

	if configuration.SnapshotDirectory == "" {
		configuration.SnapshotDirectory = "snapshots"
	}

	return configuration, nil
}

// Backup captures the live guild structure and persists it, replacing any
// existing snapshot for the guild.
func (bp *Blueprint) Backup(ctx context.Context, guildID discord.Snowflake) (string, error) {
	snapshot, err := bp.CollectSnapshot(ctx, guildID)
	if err != nil {
		blueprintOperations.WithLabelValues("backup", "failure").Inc()

		return "", err
	}

	if err := bp.Store.Save(guildID, snapshot); err != nil {
		blueprintOperations.WithLabelValues("backup", "failure").Inc()

		return "", err
	}

	blueprintOperations.WithLabelValues("backup", "success").Inc()

	return fmt.Sprintf("Saved snapshot: %d roles and %d channels",
		len(snapshot.Roles), len(snapshot.Channels)), nil
}

// Restore destructively rebuilds the guild from its stored snapshot.
func (bp *Blueprint) Restore(ctx context.Context, guildID discord.Snowflake) (string, error) {
	if !bp.operationActive.CompareAndSwap(false, true) {
		return "", ErrOperationInProgress
	}
	defer bp.operationActive.Store(false)

	return bp.RestoreGuild(ctx, guildID)
}

// RebuildChannel recreates one channel in place, snapshotting the guild
// first as a safety net.
func (bp *Blueprint) RebuildChannel(ctx context.Context, guildID, channelID discord.Snowflake) (string, error) {
	if !bp.operationActive.CompareAndSwap(false, true) {
		return "", ErrOperationInProgress
	}
	defer bp.operationActive.Store(false)

	return bp.rebuildChannel(ctx, guildID, channelID)
}
