package models

import "time"

type Profile struct {
	UserID             string
	FullName           string
	Bio                string
	XPScore            int
	Level              int
	VerificationStatus string
	TechStack          []string
	AvatarURL          string
	UpdatedAt          time.Time
}

type VerificationRequest struct {
	ID            string
	UserID        string
	FileReference string
	Description   string
	Status        string
	ReviewedAt    *time.Time
	CreatedAt     time.Time
}
