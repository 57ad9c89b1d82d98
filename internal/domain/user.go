package domain

import "time"

type (
	UserId   = int64
	Email    = string
	Username = string
)

type User struct {
	Id              UserId
	Email           Email
	Username        Username
	Name            string
	PassHash        string
	IsActive        bool
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
}
