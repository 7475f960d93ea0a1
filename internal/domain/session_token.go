package domain

import "time"

// SessionToken is a stored opaque session credential. The token value is a
// random lookup key with no decodable structure; LastUsedAt drives the
// sliding expiration window and only ever moves forward.
type SessionToken struct {
	Token      string
	UserID     string
	LastUsedAt time.Time
}
