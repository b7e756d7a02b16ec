package discord

import (
	"bytes"
	"fmt"
	"strconv"
)

// channel.go contains the information relating to channels

// ChannelType represents a channel's type.
type ChannelType uint16

const (
	ChannelTypeGuildText ChannelType = iota
	ChannelTypeDM
	ChannelTypeGuildVoice
	ChannelTypeGroupDM
	ChannelTypeGuildCategory
	ChannelTypeGuildNews
	ChannelTypeGuildStore
	_
	_
	_
	ChannelTypeGuildNewsThread
	ChannelTypeGuildPublicThread
	ChannelTypeGuildPrivateThread
	ChannelTypeGuildStageVoice
)

// Channel represents a Discord channel.
type Channel struct {
	ID                   Snowflake          `json:"id"`
	GuildID              *Snowflake         `json:"guild_id,omitempty"`
	ParentID             *Snowflake         `json:"parent_id,omitempty"`
	Name                 string             `json:"name"`
	Topic                string             `json:"topic,omitempty"`
	Type                 ChannelType        `json:"type"`
	Position             int32              `json:"position"`
	RateLimitPerUser     int32              `json:"rate_limit_per_user,omitempty"`
	Bitrate              int32              `json:"bitrate,omitempty"`
	UserLimit            int32              `json:"user_limit,omitempty"`
	PermissionOverwrites []ChannelOverwrite `json:"permission_overwrites,omitempty"`
	NSFW                 bool               `json:"nsfw"`
}

// ChannelParams represents the payload sent to create or modify a channel.
type ChannelParams struct {
	Name                 string             `json:"name,omitempty"`
	Type                 ChannelType        `json:"type,omitempty"`
	Topic                string             `json:"topic,omitempty"`
	Bitrate              int32              `json:"bitrate,omitempty"`
	UserLimit            int32              `json:"user_limit,omitempty"`
	RateLimitPerUser     int32              `json:"rate_limit_per_user,omitempty"`
	Position             int32              `json:"position,omitempty"`
	ParentID             *Snowflake         `json:"parent_id,omitempty"`
	NSFW                 bool               `json:"nsfw,omitempty"`
	PermissionOverwrites []ChannelOverwrite `json:"permission_overwrites,omitempty"`
}

// ChannelOverwrite represents a permission overwrite for a channel.
type ChannelOverwrite struct {
	Type  ChannelOverrideType `json:"type"`
	ID    Snowflake           `json:"id"`
	Allow Int64               `json:"allow"`
	Deny  Int64               `json:"deny"`
}

// ChannelOverrideType represents the target of a channel override.
type ChannelOverrideType uint16

const (
	ChannelOverrideTypeRole ChannelOverrideType = iota
	ChannelOverrideTypeMember
)

func (in *ChannelOverrideType) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		return nil
	}

	// Discord will pass ChannelOverrideType as a string if it is in an audit log.
	if b[0] == '"' && len(b) >= 2 {
		b = b[1 : len(b)-1]
	}

	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("failed to unmarshal channel override type: %v", err)
	}

	*in = ChannelOverrideType(i)

	return nil
}

func (in ChannelOverrideType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(in))), nil
}

func (in ChannelOverrideType) String() string {
	return strconv.FormatInt(int64(in), 10)
}
