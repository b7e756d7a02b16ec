package internal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/BlueprintTeam/Blueprint-Daemon/structs"
)

// CollectSnapshot reads the live guild structure and normalizes it into the
// persisted snapshot form. It always forces fresh listings and never writes
// anything; either listing failing aborts with ErrGuildFetchFailure.
func (bp *Blueprint) CollectSnapshot(ctx context.Context, guildID discord.Snowflake) (*structs.Snapshot, error) {
	guild, err := bp.Client.GetGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrGuildFetchFailure)
	}

	roles, err := bp.Client.GetGuildRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrGuildFetchFailure)
	}

	channels, err := bp.Client.GetGuildChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrGuildFetchFailure)
	}

	// Position ordering is best effort for recreation grouping; the
	// platform may still shuffle exact visual order after a restore.
	sort.SliceStable(roles, func(i, j int) bool {
		return roles[i].Position < roles[j].Position
	})

	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Position < channels[j].Position
	})

	snapshot := &structs.Snapshot{
		Metadata: structs.GuildMetadata{
			ID:      guild.ID,
			Name:    guild.Name,
			Icon:    guild.Icon,
			SavedAt: time.Now().UTC(),
		},
		Roles:    make([]structs.Role, 0, len(roles)),
		Channels: make([]structs.Channel, 0, len(channels)),
	}

	for _, role := range roles {
		// Managed roles are platform owned and cannot be recreated.
		if role.Managed {
			continue
		}

		snapshot.Roles = append(snapshot.Roles, structs.Role{
			ID:          role.ID,
			Name:        role.Name,
			Permissions: role.Permissions,
			Color:       role.Color,
			Position:    role.Position,
			Hoist:       role.Hoist,
			Mentionable: role.Mentionable,
		})
	}

	for _, channel := range channels {
		kind, ok := structs.KindFromChannelType(channel.Type)
		if !ok {
			bp.Logger.Debug().
				Str("channel", channel.Name).
				Uint16("type", uint16(channel.Type)).
				Msg("Skipping non-structural channel")

			continue
		}

		snapshot.Channels = append(snapshot.Channels, structs.Channel{
			ID:               channel.ID,
			ParentID:         channel.ParentID,
			Name:             channel.Name,
			Kind:             kind,
			Topic:            channel.Topic,
			Position:         channel.Position,
			RateLimitPerUser: channel.RateLimitPerUser,
			Bitrate:          channel.Bitrate,
			UserLimit:        channel.UserLimit,
			NSFW:             channel.NSFW,
			Overwrites:       collectRoleOverwrites(channel.PermissionOverwrites),
		})
	}

	bp.Logger.Info().
		Str("guild_id", guildID.String()).
		Int("roles", len(snapshot.Roles)).
		Int("channels", len(snapshot.Channels)).
		Msg("Collected guild snapshot")

	return snapshot, nil
}

// collectRoleOverwrites copies the role-scoped overwrites of a channel.
// Member-targeted overwrites are dropped; this is a documented limitation
// of the snapshot format, not a bug.
func collectRoleOverwrites(overwrites []discord.ChannelOverwrite) []structs.Overwrite {
	if len(overwrites) == 0 {
		return nil
	}

	collected := make([]structs.Overwrite, 0, len(overwrites))

	for _, overwrite := range overwrites {
		if overwrite.Type != discord.ChannelOverrideTypeRole {
			continue
		}

		collected = append(collected, structs.Overwrite{
			RoleID: overwrite.ID,
			Allow:  overwrite.Allow,
			Deny:   overwrite.Deny,
		})
	}

	if len(collected) == 0 {
		return nil
	}

	return collected
}
