package domain

import (
	"regexp"
	"time"
)

// userIDPattern is the accepted shape of a user identifier: a canonical
// decimal number of at most 19 digits. Leading zeros are rejected so that
// "7" and "007" cannot become two keys for one upstream user.
var userIDPattern = regexp.MustCompile(`^(0|[1-9][0-9]{0,18})$`)

// ValidUserID reports whether id has the shape of a user identifier.
// IDs are stored and compared as opaque strings; only the shape is checked.
func ValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// AvatarRecord maps a user to the content-addressed blob holding their avatar.
// At most one record exists per UserID.
type AvatarRecord struct {
	UserID      string    `json:"user_id"`
	ContentHash string    `json:"content_hash"` // hex SHA-256 of the blob bytes
	BlobPath    string    `json:"blob_path"`    // key relative to the storage root
	CreatedAt   time.Time `json:"created_at"`
}

// AvatarResponse is the body returned for a successful avatar read.
type AvatarResponse struct {
	Avatar string `json:"avatar"` // standard base64 of the image bytes
}
