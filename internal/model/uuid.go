package model

import "github.com/google/uuid"

// NewRunID returns an identifier for one import run.
func NewRunID() string {
	return uuid.New().String()
}
