package models

import (
	"fmt"
	"time"
)

// User represents an account within friendgraph.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FriendshipStatus is the state of a single directed friendship record.
// The zero value is not a valid status; a missing record is represented by
// the absence of a Friendship rather than by a status.
type FriendshipStatus uint8

const (
	StatusRequested FriendshipStatus = iota + 1
	StatusAccepted
	StatusDeclined
)

// ParseFriendshipStatus converts the stored representation into a status.
func ParseFriendshipStatus(value string) (FriendshipStatus, error) {
	switch value {
	case "requested":
		return StatusRequested, nil
	case "accepted":
		return StatusAccepted, nil
	case "declined":
		return StatusDeclined, nil
	default:
		return 0, fmt.Errorf("unknown friendship status %q", value)
	}
}

// Valid reports whether s is one of the declared statuses.
func (s FriendshipStatus) Valid() bool {
	return s >= StatusRequested && s <= StatusDeclined
}

func (s FriendshipStatus) String() string {
	switch s {
	case StatusRequested:
		return "requested"
	case StatusAccepted:
		return "accepted"
	case StatusDeclined:
		return "declined"
	default:
		return fmt.Sprintf("FriendshipStatus(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s FriendshipStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid friendship status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *FriendshipStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseFriendshipStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Friendship is one direction of the relationship between two users.
// A mutual friendship is two records, one per direction.
type Friendship struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	FriendUserID string           `json:"friendUserId"`
	Status       FriendshipStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
