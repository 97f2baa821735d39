// Package database provides the persistence layer behind the API: one
// Store contract with PostgreSQL, SQLite and in-memory implementations,
// selected once at startup.
package database

import (
	"time"
)

// User is a registered account. The initial bankroll is declared at
// registration and never mutated afterwards; available bankroll is
// always derived from it.
type User struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	Age             int       `json:"age" db:"age"`
	InitialBankroll float64   `json:"bankroll" db:"initial_bankroll"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
