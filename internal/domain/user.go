package domain

import "time"

// User is the domain model for registered accounts. Accounts start inactive
// and become active once the emailed activation token is redeemed.
type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	Inactive        bool
	ActivationToken string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
