package model

import "time"

// Post is a freshly created forum post as delivered by the forum's
// post-save hook.
type Post struct {
	PID       int64     `json:"pid"`
	TID       int64     `json:"tid"`
	UID       int64     `json:"uid"`
	CID       string    `json:"cid"`
	Content   string    `json:"content"`
	IsMain    bool      `json:"isMain"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic carries the fields the relay needs to build announcement links.
type Topic struct {
	TID   int64
	Title string
	Slug  string
}

// TopicSummary is one row of a /recent listing.
type TopicSummary struct {
	TID          int64
	Title        string
	AuthorName   string
	LastPostTime time.Time
}
