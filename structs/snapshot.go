package structs

import (
	"time"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
)

// snapshot.go represents the persisted form of a guild's structure.

// ChannelKind is the structural channel variant. The valid payload fields
// differ per kind, so it is stored as a tagged variant instead of the
// platform's numeric channel type.
type ChannelKind string

const (
	ChannelKindCategory ChannelKind = "category"
	ChannelKindText     ChannelKind = "text"
	ChannelKindVoice    ChannelKind = "voice"
)

// KindFromChannelType maps a platform channel type onto a structural kind.
// Announcement channels behave as text and stage channels as voice. Threads
// and DM types are not part of a guild's structure and report ok=false.
func KindFromChannelType(channelType discord.ChannelType) (ChannelKind, bool) {
	switch channelType {
	case discord.ChannelTypeGuildCategory:
		return ChannelKindCategory, true
	case discord.ChannelTypeGuildText, discord.ChannelTypeGuildNews:
		return ChannelKindText, true
	case discord.ChannelTypeGuildVoice, discord.ChannelTypeGuildStageVoice:
		return ChannelKindVoice, true
	}

	return "", false
}

// ChannelType maps a structural kind back to the platform channel type used
// when recreating the channel.
func (k ChannelKind) ChannelType() discord.ChannelType {
	switch k {
	case ChannelKindCategory:
		return discord.ChannelTypeGuildCategory
	case ChannelKindVoice:
		return discord.ChannelTypeGuildVoice
	default:
		return discord.ChannelTypeGuildText
	}
}

// GuildMetadata identifies the guild a snapshot was taken from.
type GuildMetadata struct {
	ID      discord.Snowflake `json:"id"`
	Name    string            `json:"name"`
	Icon    string            `json:"icon,omitempty"`
	SavedAt time.Time         `json:"saved_at"`
}

// Role is a captured guild role. Permissions is a 64 bit mask carried as a
// quoted decimal string on the wire.
type Role struct {
	ID          discord.Snowflake `json:"id"`
	Name        string            `json:"name"`
	Permissions discord.Int64     `json:"permissions"`
	Color       int32             `json:"color"`
	Position    int32             `json:"position"`
	Hoist       bool              `json:"hoist"`
	Mentionable bool              `json:"mentionable"`
}

// Overwrite is a captured channel permission overwrite. Only role principals
// are ever represented; member overwrites are dropped at capture time.
type Overwrite struct {
	RoleID discord.Snowflake `json:"role_id"`
	Allow  discord.Int64     `json:"allow"`
	Deny   discord.Int64     `json:"deny"`
}

// Channel is a captured guild channel. A nil ParentID means top level.
type Channel struct {
	ID               discord.Snowflake  `json:"id"`
	ParentID         *discord.Snowflake `json:"parent_id,omitempty"`
	Name             string             `json:"name"`
	Kind             ChannelKind        `json:"kind"`
	Topic            string             `json:"topic,omitempty"`
	Position         int32              `json:"position"`
	RateLimitPerUser int32              `json:"rate_limit_per_user,omitempty"`
	Bitrate          int32              `json:"bitrate,omitempty"`
	UserLimit        int32              `json:"user_limit,omitempty"`
	NSFW             bool               `json:"nsfw,omitempty"`
	Overwrites       []Overwrite        `json:"overwrites,omitempty"`
}

// Snapshot is the full captured structure of one guild. All identifiers are
// source side and become invalid once a restore's teardown has run.
type Snapshot struct {
	Metadata GuildMetadata `json:"metadata"`
	Roles    []Role        `json:"roles"`
	Channels []Channel     `json:"channels"`
}
