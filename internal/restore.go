package internal

import (
	"context"
	"fmt"
	"sort"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/BlueprintTeam/Blueprint-Daemon/structs"
	"github.com/rs/zerolog"
)

// RestoreState tracks how far a restore has progressed. There is no
// rollback path: once teardown begins the run is irreversible and always
// proceeds to its terminal state.
type RestoreState int32

const (
	RestoreStateIdle RestoreState = iota
	RestoreStateTeardown
	RestoreStateCreateRoles
	RestoreStateCreateCategories
	RestoreStateCreateChannels
	RestoreStateApplyMetadata
	RestoreStateNotify
	RestoreStateDone
)

func (rs RestoreState) String() string {
	switch rs {
	case RestoreStateTeardown:
		return "teardown"
	case RestoreStateCreateRoles:
		return "create_roles"
	case RestoreStateCreateCategories:
		return "create_categories"
	case RestoreStateCreateChannels:
		return "create_channels"
	case RestoreStateApplyMetadata:
		return "apply_metadata"
	case RestoreStateNotify:
		return "notify"
	case RestoreStateDone:
		return "done"
	default:
		return "idle"
	}
}

// restoreRun holds the working state of one restore: the id translation
// tables that stand in for the identifiers invalidated by teardown, and the
// per entity failure tally.
type restoreRun struct {
	bp       *Blueprint
	logger   zerolog.Logger
	guildID  discord.Snowflake
	snapshot *structs.Snapshot

	state RestoreState

	// Source id to newly minted id, built incrementally as entities are
	// recreated. Overwrite principals and channel parents resolve through
	// these instead of retained references into deleted state.
	roleMap     map[discord.Snowflake]discord.Snowflake
	categoryMap map[discord.Snowflake]discord.Snowflake

	notifyChannel discord.Snowflake

	rolesCreated    int
	channelsCreated int
	failures        int

	// Set in strict mode after the first per entity failure.
	halted bool
}

func newRestoreRun(bp *Blueprint, guildID discord.Snowflake, snapshot *structs.Snapshot) *restoreRun {
	run := &restoreRun{
		bp: bp,
		logger: bp.Logger.With().
			Str("operation", "restore").
			Str("guild_id", guildID.String()).
			Logger(),
		guildID:     guildID,
		snapshot:    snapshot,
		roleMap:     make(map[discord.Snowflake]discord.Snowflake),
		categoryMap: make(map[discord.Snowflake]discord.Snowflake),
	}

	// The live default role survives teardown and shares the guild's own
	// id, which the snapshot's implicit default entry also carries.
	run.roleMap[guildID] = guildID

	return run
}

// RestoreGuild destructively rebuilds the live guild from its stored
// snapshot. A missing or corrupt snapshot aborts before teardown; once
// teardown has begun every per entity failure is isolated and the run
// reaches its terminal state, returning exactly one status string.
func (bp *Blueprint) RestoreGuild(ctx context.Context, guildID discord.Snowflake) (string, error) {
	snapshot, found, err := bp.Store.Load(guildID)
	if err != nil {
		blueprintOperations.WithLabelValues("restore", "failure").Inc()

		return "", err
	}

	if !found {
		blueprintOperations.WithLabelValues("restore", "failure").Inc()

		return "", fmt.Errorf("guild %s: %w", guildID, ErrSnapshotMissing)
	}

	run := newRestoreRun(bp, guildID, snapshot)
	run.execute(ctx)

	if run.halted {
		blueprintOperations.WithLabelValues("restore", "aborted").Inc()
	} else {
		blueprintOperations.WithLabelValues("restore", "success").Inc()
	}

	return run.summary(), nil
}

func (r *restoreRun) execute(ctx context.Context) {
	r.setState(RestoreStateTeardown)
	r.teardown(ctx)

	if !r.halted {
		r.setState(RestoreStateCreateRoles)
		r.createRoles(ctx)
	}

	if !r.halted {
		r.setState(RestoreStateCreateCategories)
		r.createCategories(ctx)
	}

	if !r.halted {
		r.setState(RestoreStateCreateChannels)
		r.createChannels(ctx)
	}

	if !r.halted {
		r.setState(RestoreStateApplyMetadata)
		r.applyMetadata(ctx)

		r.setState(RestoreStateNotify)
		r.notify(ctx)
	}

	r.setState(RestoreStateDone)
}

func (r *restoreRun) setState(state RestoreState) {
	r.state = state
	r.logger.Info().Str("state", state.String()).Msg("Restore state changed")
}

// fail tallies a per entity failure and reports whether the run should stop
// creating further entities (strict mode only).
func (r *restoreRun) fail(entityType string) bool {
	r.failures++
	blueprintEntityFailures.WithLabelValues(entityType).Inc()

	if r.bp.Configuration.StrictRestore {
		r.halted = true
	}

	return r.halted
}

// teardown deletes every live channel, then every live non-managed,
// non-default role. Clearing is best effort; each failed deletion is logged
// and the rest still go.
func (r *restoreRun) teardown(ctx context.Context) {
	channels, err := r.bp.Client.GetGuildChannels(ctx, r.guildID)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to list channels for teardown")
	}

	for _, channel := range channels {
		if err := r.bp.Client.DeleteChannel(ctx, channel.ID); err != nil {
			r.logger.Error().Err(err).Str("channel", channel.Name).Msg("Failed to delete channel")

			if r.fail("channel") {
				return
			}

			continue
		}

		blueprintEntitiesDeleted.WithLabelValues("channel").Inc()
	}

	roles, err := r.bp.Client.GetGuildRoles(ctx, r.guildID)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to list roles for teardown")
	}

	for _, role := range roles {
		if role.Managed || role.ID == r.guildID {
			continue
		}

		if err := r.bp.Client.DeleteGuildRole(ctx, r.guildID, role.ID); err != nil {
			r.logger.Error().Err(err).Str("role", role.Name).Msg("Failed to delete role")

			if r.fail("role") {
				return
			}

			continue
		}

		blueprintEntitiesDeleted.WithLabelValues("role").Inc()
	}
}

func (r *restoreRun) createRoles(ctx context.Context) {
	for _, role := range r.snapshot.Roles {
		// The implicit default role already has a live equivalent.
		if role.ID == r.guildID {
			continue
		}

		permissions := role.Permissions

		created, err := r.bp.Client.CreateGuildRole(ctx, r.guildID, discord.RoleParams{
			Name:        role.Name,
			Permissions: &permissions,
			Color:       role.Color,
			Hoist:       role.Hoist,
			Mentionable: role.Mentionable,
		})
		if err != nil {
			r.logger.Error().Err(err).Str("role", role.Name).Msg("Failed to create role")

			if r.fail("role") {
				return
			}

			continue
		}

		r.roleMap[role.ID] = created.ID
		r.rolesCreated++
		blueprintEntitiesCreated.WithLabelValues("role").Inc()
	}
}

func (r *restoreRun) createCategories(ctx context.Context) {
	for _, channel := range sortedByPosition(r.snapshot.Channels) {
		if channel.Kind != structs.ChannelKindCategory {
			continue
		}

		created, err := r.bp.Client.CreateGuildChannel(ctx, r.guildID, discord.ChannelParams{
			Name:     channel.Name,
			Type:     channel.Kind.ChannelType(),
			Position: channel.Position,
		})
		if err != nil {
			r.logger.Error().Err(err).Str("channel", channel.Name).Msg("Failed to create category")

			if r.fail("category") {
				return
			}

			continue
		}

		r.categoryMap[channel.ID] = created.ID
		r.channelsCreated++
		blueprintEntitiesCreated.WithLabelValues("category").Inc()

		if r.applyOverwrites(ctx, created.ID, channel) {
			return
		}
	}
}

func (r *restoreRun) createChannels(ctx context.Context) {
	for _, channel := range sortedByPosition(r.snapshot.Channels) {
		if channel.Kind == structs.ChannelKindCategory {
			continue
		}

		params := channelCreateParams(channel, r.resolveParent(channel.ParentID))

		created, err := r.bp.Client.CreateGuildChannel(ctx, r.guildID, params)
		if err != nil {
			r.logger.Error().Err(err).Str("channel", channel.Name).Msg("Failed to create channel")

			if r.fail("channel") {
				return
			}

			continue
		}

		r.channelsCreated++
		blueprintEntitiesCreated.WithLabelValues("channel").Inc()

		if channel.Kind == structs.ChannelKindText && r.notifyChannel.IsNil() {
			r.notifyChannel = created.ID
		}

		if r.applyOverwrites(ctx, created.ID, channel) {
			return
		}
	}
}

// resolveParent translates a snapshot category id to its recreated id. A
// parent that failed to create resolves to none instead of aborting the
// child channel.
func (r *restoreRun) resolveParent(parentID *discord.Snowflake) *discord.Snowflake {
	if parentID == nil {
		return nil
	}

	newID, ok := r.categoryMap[*parentID]
	if !ok {
		return nil
	}

	return &newID
}

// applyOverwrites translates a channel's overwrite principals through the
// role map and applies them as one batched call. Reports whether the run
// was halted.
func (r *restoreRun) applyOverwrites(ctx context.Context, channelID discord.Snowflake, channel structs.Channel) bool {
	if len(channel.Overwrites) == 0 {
		return false
	}

	overwrites := make([]discord.ChannelOverwrite, 0, len(channel.Overwrites))

	for _, overwrite := range channel.Overwrites {
		principal, ok := r.roleMap[overwrite.RoleID]
		if !ok {
			// The referenced role failed to create or never existed;
			// scope the overwrite to the live default role instead.
			principal = r.guildID
		}

		overwrites = append(overwrites, discord.ChannelOverwrite{
			ID:    principal,
			Type:  discord.ChannelOverrideTypeRole,
			Allow: overwrite.Allow,
			Deny:  overwrite.Deny,
		})
	}

	_, err := r.bp.Client.ModifyChannel(ctx, channelID, discord.ChannelParams{
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		r.logger.Error().Err(err).Str("channel", channel.Name).Msg("Failed to apply channel overwrites")

		return r.fail("overwrites")
	}

	return false
}

func (r *restoreRun) applyMetadata(ctx context.Context) {
	guild, err := r.bp.Client.GetGuild(ctx, r.guildID)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to fetch guild for metadata")
	} else if guild.Name != r.snapshot.Metadata.Name {
		name := r.snapshot.Metadata.Name

		if err := r.bp.Client.ModifyGuild(ctx, r.guildID, discord.GuildParams{Name: &name}); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to rename guild")
		}
	}

	if r.snapshot.Metadata.Icon != "" {
		icon := r.snapshot.Metadata.Icon

		if err := r.bp.Client.ModifyGuild(ctx, r.guildID, discord.GuildParams{Icon: &icon}); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to set guild icon")
		}
	}
}

func (r *restoreRun) notify(ctx context.Context) {
	if r.notifyChannel.IsNil() {
		return
	}

	_, err := r.bp.Client.CreateMessage(ctx, r.notifyChannel, discord.MessageParams{
		Content: r.summary(),
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to post restore notice")
	}
}

// summary is the single acknowledgement the operator receives, however many
// per entity failures accumulated on the way.
func (r *restoreRun) summary() string {
	if r.halted {
		return fmt.Sprintf("Restore aborted after first failure: created %d roles and %d channels",
			r.rolesCreated, r.channelsCreated)
	}

	if r.failures > 0 {
		return fmt.Sprintf("Restore complete: created %d roles and %d channels, %d entities failed",
			r.rolesCreated, r.channelsCreated, r.failures)
	}

	return fmt.Sprintf("Restore complete: created %d roles and %d channels",
		r.rolesCreated, r.channelsCreated)
}

// sortedByPosition returns a position ascending copy, leaving the snapshot
// itself untouched.
func sortedByPosition(channels []structs.Channel) []structs.Channel {
	sorted := make([]structs.Channel, len(channels))
	copy(sorted, channels)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	return sorted
}
