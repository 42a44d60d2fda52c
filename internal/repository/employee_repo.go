package repository

import (
	"context"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(ctx context.Context, e *model.Employee) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	// FindFirstActive returns the oldest active employee or ErrNotFound.
	FindFirstActive(ctx context.Context) (*model.Employee, error)
}

type employeeRepo struct{ db *gorm.DB }

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository { return &employeeRepo{db: db} }

func (r *employeeRepo) Create(ctx context.Context, e *model.Employee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

func (r *employeeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	var e model.Employee
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *employeeRepo) FindFirstActive(ctx context.Context) (*model.Employee, error) {
	var e model.Employee
	err := r.db.WithContext(ctx).Where("active = true").Order("created_at ASC").First(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}
