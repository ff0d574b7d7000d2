package model

import (
	"time"
)

// Base contains the storage-assigned fields shared by every persisted document
type Base struct {
	ID        string    `json:"$id" db:"id"`
	CreatedAt time.Time `json:"$createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"$updatedAt" db:"updated_at"`
}
