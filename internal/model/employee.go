package model

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a staff record. Employees are managed elsewhere; this service only
// reads them and, when none exists, creates the default one.
// Role: "admin" | "manager" | "waiter" | "cashier"
type Employee struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Role      string    `gorm:"type:varchar(20);not null;default:'waiter'"`
	Active    bool      `gorm:"not null;default:true;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Employee) TableName() string { return "employees" }
