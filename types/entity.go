package types

import "time"

// Entity carries the bookkeeping timestamps shared by persisted records.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates an Entity stamped with the current UTC time.
func NewEntity() Entity {
	return NewEntityAt(time.Now())
}

// NewEntityAt creates an Entity stamped with t.
func NewEntityAt(t time.Time) Entity {
	t = t.UTC()
	return Entity{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Touch updates UpdatedAt to t.
func (e *Entity) Touch(t time.Time) {
	e.UpdatedAt = t.UTC()
}
