package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a row in the shared `projects` registry table: one entry per
// filesystem path a SpecMem process has ever resolved as active.
type Project struct {
	ID        uuid.UUID
	Path      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
