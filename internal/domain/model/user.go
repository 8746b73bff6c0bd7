package model

// UserSettings is the subset of a forum user's settings the relay reads.
type UserSettings struct {
	UID      int64
	Language string
}
