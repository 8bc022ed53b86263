package models

import (
	"errors"
	"time"
)

// Session is a single conversation thread owned by a user and one of their profiles
type Session struct {
	ID           string // UUID
	Name         string // Display name shown in the history list
	OwnerID      string
	ProfileID    string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time // Last activity, bumped on every persisted transcript write
}

// Validate checks if the session has required fields
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.OwnerID == "" {
		return errors.New("owner_id is required")
	}
	if s.ProfileID == "" {
		return errors.New("profile_id is required")
	}
	return nil
}

// Profile is a persona on whose behalf a user chats
type Profile struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Validate checks if the profile has required fields
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.OwnerID == "" {
		return errors.New("owner_id is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
