package model

import "time"

// Allocation is the amount a user assigns to one project, in whole pounds.
type Allocation struct {
	Email     string    `json:"email"`
	ProjectID string    `json:"project_id"`
	Amount    int64     `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}
