package internal

import (
	"context"
	"fmt"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/BlueprintTeam/Blueprint-Daemon/structs"
)

// rebuildChannel recreates one live channel in place. The whole guild is
// snapshotted and persisted first as a safety net; only the target channel
// is destroyed. No id remapping is needed since no teardown happens: every
// parent and role id is still live.
func (bp *Blueprint) rebuildChannel(ctx context.Context, guildID, channelID discord.Snowflake) (string, error) {
	logger := bp.Logger.With().
		Str("operation", "rebuild").
		Str("guild_id", guildID.String()).
		Str("channel_id", channelID.String()).
		Logger()

	snapshot, err := bp.CollectSnapshot(ctx, guildID)
	if err != nil {
		blueprintOperations.WithLabelValues("rebuild", "failure").Inc()

		return "", err
	}

	if err := bp.Store.Save(guildID, snapshot); err != nil {
		blueprintOperations.WithLabelValues("rebuild", "failure").Inc()

		return "", err
	}

	var target *structs.Channel

	for i := range snapshot.Channels {
		if snapshot.Channels[i].ID == channelID {
			target = &snapshot.Channels[i]

			break
		}
	}

	if target == nil {
		blueprintOperations.WithLabelValues("rebuild", "failure").Inc()

		return "", fmt.Errorf("channel %s: %w", channelID, ErrChannelNotFound)
	}

	replacement, err := bp.Client.CreateGuildChannel(ctx, guildID, channelCreateParams(*target, target.ParentID))
	if err != nil {
		blueprintOperations.WithLabelValues("rebuild", "failure").Inc()

		return "", fmt.Errorf("failed to create replacement channel: %w", err)
	}

	blueprintEntitiesCreated.WithLabelValues("channel").Inc()

	if len(target.Overwrites) > 0 {
		overwrites := make([]discord.ChannelOverwrite, 0, len(target.Overwrites))

		for _, overwrite := range target.Overwrites {
			overwrites = append(overwrites, discord.ChannelOverwrite{
				ID:    overwrite.RoleID,
				Type:  discord.ChannelOverrideTypeRole,
				Allow: overwrite.Allow,
				Deny:  overwrite.Deny,
			})
		}

		_, err = bp.Client.ModifyChannel(ctx, replacement.ID, discord.ChannelParams{
			PermissionOverwrites: overwrites,
		})
		if err != nil {
			// The replacement exists with default permissions; degraded
			// but usable, so it is not retried.
			logger.Error().Err(err).Msg("Failed to reapply channel overwrites")
			blueprintEntityFailures.WithLabelValues("overwrites").Inc()
		}
	}

	if err := bp.Client.DeleteChannel(ctx, channelID); err != nil {
		logger.Error().Err(err).Msg("Failed to delete original channel")
		blueprintEntityFailures.WithLabelValues("channel").Inc()
	} else {
		blueprintEntitiesDeleted.WithLabelValues("channel").Inc()
	}

	_, err = bp.Client.CreateMessage(ctx, replacement.ID, discord.MessageParams{
		Content: fmt.Sprintf("Channel rebuilt. This is the new #%s.", target.Name),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to post rebuild notice")
	}

	blueprintOperations.WithLabelValues("rebuild", "success").Inc()

	return fmt.Sprintf("Rebuilt channel %s", target.Name), nil
}

// channelCreateParams builds the kind specific creation payload for a
// captured channel. Text carries topic, nsfw and slow mode; voice carries
// bitrate and user limit.
func channelCreateParams(channel structs.Channel, parentID *discord.Snowflake) discord.ChannelParams {
	params := discord.ChannelParams{
		Name:     channel.Name,
		Type:     channel.Kind.ChannelType(),
		Position: channel.Position,
		ParentID: parentID,
	}

	switch channel.Kind {
	case structs.ChannelKindText:
		params.Topic = channel.Topic
		params.NSFW = channel.NSFW
		params.RateLimitPerUser = channel.RateLimitPerUser
	case structs.ChannelKindVoice:
		params.Bitrate = channel.Bitrate
		params.UserLimit = channel.UserLimit
	}

	return params
}
