// Package models holds the GORM mappings for every persisted table.
package models

import "github.com/google/uuid"

// assignID gives a row a v4 id when the caller has not chosen one. Postgres
// also defaults the column, but sqlite does not.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
