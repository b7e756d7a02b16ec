package discord

// http.go represents the structures of common endpoints we use.

// TooManyRequests represents the payload of a TooManyRequests response.
type TooManyRequests struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}
