package model

import "time"

// KanbanColumn is a stage on the company pipeline board.
type KanbanColumn struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Title     string    `json:"title" db:"title"`
	Color     string    `json:"color" db:"color"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ColumnWithCards is a board column together with the companies placed in it.
type ColumnWithCards struct {
	KanbanColumn
	Cards []Company `json:"cards"`
}
