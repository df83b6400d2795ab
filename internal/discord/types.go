package discord

import "time"

// Message is the request body for creating or editing a channel message
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds"`
}

// Embed is the rich block attached to a message
type Embed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Fields      []Field   `json:"fields"`
	Footer      *Footer   `json:"footer,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Field is a titled name/value pair inside an embed
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Footer is the small text line at the bottom of an embed
type Footer struct {
	Text string `json:"text"`
}

// messageResponse is the subset of the create-message response we consume
type messageResponse struct {
	ID string `json:"id"`
}

// errorResponse is Discord's error body shape
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HealthStatus reports whether the configured channel is reachable
type HealthStatus struct {
	Available bool
	Reason    string
}
