package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the caller left the key unset. Postgres
// fills it through gen_random_uuid(), but sqlite has no such default.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
