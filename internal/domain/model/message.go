package model

// InboundMessage is the only inbound shape the core consumes from the
// chat transport.
type InboundMessage struct {
	ChatID   int64
	FromID   int64
	Username string
	Text     string
}

// OutboundMessage is a send request travelling over the event bus to
// whichever process holds the live bot connection.
type OutboundMessage struct {
	Target int64  `json:"target"`
	Text   string `json:"text"`
}
