package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
)

// rest.go contains the typed platform calls the engine uses. Everything
// funnels through Client.FetchJSON so pacing and backoff apply uniformly.

// GetGuild fetches a guild by id.
func (c *Client) GetGuild(ctx context.Context, guildID discord.Snowflake) (*discord.Guild, error) {
	var guild discord.Guild

	err := c.FetchJSON(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s", guildID), nil, &guild)
	if err != nil {
		return nil, err
	}

	return &guild, nil
}

// GetGuildRoles fetches a fresh role listing for a guild.
func (c *Client) GetGuildRoles(ctx context.Context, guildID discord.Snowflake) ([]discord.Role, error) {
	var roles []discord.Role

	err := c.FetchJSON(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/roles", guildID), nil, &roles)
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// GetGuildChannels fetches a fresh channel listing for a guild.
func (c *Client) GetGuildChannels(ctx context.Context, guildID discord.Snowflake) ([]discord.Channel, error) {
	var channels []discord.Channel

	err := c.FetchJSON(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/channels", guildID), nil, &channels)
	if err != nil {
		return nil, err
	}

	return channels, nil
}

// CreateGuildRole creates a role and returns it with its new id.
func (c *Client) CreateGuildRole(ctx context.Context, guildID discord.Snowflake, params discord.RoleParams) (*discord.Role, error) {
	var role discord.Role

	err := c.FetchJSON(ctx, http.MethodPost, fmt.Sprintf("/guilds/%s/roles", guildID), params, &role)
	if err != nil {
		return nil, err
	}

	return &role, nil
}

// DeleteGuildRole deletes a role from a guild.
func (c *Client) DeleteGuildRole(ctx context.Context, guildID, roleID discord.Snowflake) error {
	return c.FetchJSON(ctx, http.MethodDelete, fmt.Sprintf("/guilds/%s/roles/%s", guildID, roleID), nil, nil)
}

// CreateGuildChannel creates a channel and returns it with its new id.
func (c *Client) CreateGuildChannel(ctx context.Context, guildID discord.Snowflake, params discord.ChannelParams) (*discord.Channel, error) {
	var channel discord.Channel

	err := c.FetchJSON(ctx, http.MethodPost, fmt.Sprintf("/guilds/%s/channels", guildID), params, &channel)
	if err != nil {
		return nil, err
	}

	return &channel, nil
}

// DeleteChannel deletes a channel.
func (c *Client) DeleteChannel(ctx context.Context, channelID discord.Snowflake) error {
	return c.FetchJSON(ctx, http.MethodDelete, fmt.Sprintf("/channels/%s", channelID), nil, nil)
}

// ModifyChannel patches a channel. Used to apply a channel's permission
// overwrites as one batched call after creation.
func (c *Client) ModifyChannel(ctx context.Context, channelID discord.Snowflake, params discord.ChannelParams) (*discord.Channel, error) {
	var channel discord.Channel

	err := c.FetchJSON(ctx, http.MethodPatch, fmt.Sprintf("/channels/%s", channelID), params, &channel)
	if err != nil {
		return nil, err
	}

	return &channel, nil
}

// ModifyGuild patches guild metadata. Nil params fields are left untouched.
func (c *Client) ModifyGuild(ctx context.Context, guildID discord.Snowflake, params discord.GuildParams) error {
	return c.FetchJSON(ctx, http.MethodPatch, fmt.Sprintf("/guilds/%s", guildID), params, nil)
}

// CreateMessage sends a message to a channel.
func (c *Client) CreateMessage(ctx context.Context, channelID discord.Snowflake, params discord.MessageParams) (*discord.Message, error) {
	var message discord.Message

	err := c.FetchJSON(ctx, http.MethodPost, fmt.Sprintf("/channels/%s/messages", channelID), params, &message)
	if err != nil {
		return nil, err
	}

	return &message, nil
}
