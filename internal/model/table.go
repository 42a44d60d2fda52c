package model

import (
	"time"

	"github.com/google/uuid"
)

// Table status values.
const (
	TableFree        = "free"
	TableOccupied    = "occupied"
	TableReserved    = "reserved"
	TableMaintenance = "maintenance"
)

// Table kinds. virtual tables back counter and delivery flows.
const (
	TableIndoor  = "indoor"
	TableOutdoor = "outdoor"
	TableCounter = "counter"
	TableVirtual = "virtual"
)

// Table is a seating unit ("mesa"). CurrentOrderID is only set while the
// table is occupied by an open order.
type Table struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Number   int       `gorm:"uniqueIndex;not null"`
	Name     *string
	Kind     string `gorm:"type:varchar(20);not null;default:'indoor'"`
	Status   string `gorm:"type:varchar(20);not null;default:'free';index"`
	Capacity int    `gorm:"not null;default:0"`

	CurrentOrderID        *uuid.UUID `gorm:"type:uuid"`
	ResponsibleEmployeeID *uuid.UUID `gorm:"type:uuid"`
	ResponsibleName       *string
	ClientsCount          int `gorm:"not null;default:0"`
	OpenedAt              *time.Time
	Notes                 *string

	Version   int `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Table) TableName() string { return "tables" }

// ResetOccupancy returns the table to free and clears every occupancy field.
func (t *Table) ResetOccupancy() {
	t.Status = TableFree
	t.CurrentOrderID = nil
	t.ResponsibleEmployeeID = nil
	t.ResponsibleName = nil
	t.ClientsCount = 0
	t.OpenedAt = nil
}

func (t *Table) Clone() *Table {
	c := *t
	return &c
}
