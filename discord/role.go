package discord

// role.go represents all structures for a discord guild role.

// Role represents a role on discord.
type Role struct {
	GuildID     *Snowflake `json:"guild_id,omitempty"`
	Name        string     `json:"name"`
	ID          Snowflake  `json:"id"`
	Permissions Int64      `json:"permissions"`
	Color       int32      `json:"color"`
	Position    int32      `json:"position"`
	Hoist       bool       `json:"hoist"`
	Managed     bool       `json:"managed"`
	Mentionable bool       `json:"mentionable"`
}

// RoleParams represents the payload sent to create or modify a role.
type RoleParams struct {
	Name        string `json:"name,omitempty"`
	Permissions *Int64 `json:"permissions,omitempty"`
	Color       int32  `json:"color,omitempty"`
	Hoist       bool   `json:"hoist,omitempty"`
	Mentionable bool   `json:"mentionable,omitempty"`
}
