package discord

// guild.go represents the guild structures we use.

// Guild represents a guild on discord.
type Guild struct {
	ID          Snowflake  `json:"id"`
	OwnerID     *Snowflake `json:"owner_id,omitempty"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon,omitempty"`
	Description string     `json:"description,omitempty"`
}

// GuildParams represents the payload sent to modify a guild.
// Nil fields are left untouched.
type GuildParams struct {
	Name *string `json:"name,omitempty"`
	Icon *string `json:"icon,omitempty"`
}
