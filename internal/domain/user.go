package domain

import "time"

// User is an identity in the local credential store (users table).
type User struct {
	UserID         string    `json:"id" dynamodbav:"user_id"`
	Email          string    `json:"email" dynamodbav:"email"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	EmailConfirmed bool      `json:"email_confirmed" dynamodbav:"email_confirmed"`
	Enable         int       `json:"enable" dynamodbav:"enable"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}
