package discord

// message.go represents the message object.

// Message represents a message on discord.
type Message struct {
	ID        Snowflake `json:"id"`
	ChannelID Snowflake `json:"channel_id"`
	Content   string    `json:"content"`
}

// MessageParams represents the payload sent to send a message.
type MessageParams struct {
	Content string `json:"content"`
}
