// Package model defines domain entities for the application.
package model

import "time"

// User is an allow-listed person identified by email.
// Created on the first verification attempt, never deleted.
type User struct {
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}
