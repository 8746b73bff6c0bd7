package model

// Notification is a forum-originated user notification. BodyShort is a
// translator key (or plain text), BodyLong may contain markup that must
// be stripped before it reaches the chat.
type Notification struct {
	NID       string `json:"nid"`
	BodyShort string `json:"bodyShort"`
	BodyLong  string `json:"bodyLong"`
	Path      string `json:"path"`
	PID       int64  `json:"pid"`
	TID       int64  `json:"tid"`
}
