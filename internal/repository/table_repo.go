package repository

import (
	"context"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TableRepository interface {
	Create(ctx context.Context, t *model.Table) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error)
	FindByNumber(ctx context.Context, number int) (*model.Table, error)
	Update(ctx context.Context, t *model.Table) error
	// List returns every table ordered by number; status filters when non-empty.
	List(ctx context.Context, status string) ([]model.Table, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type tableRepo struct{ db *gorm.DB }

func NewTableRepository(db *gorm.DB) TableRepository { return &tableRepo{db: db} }

func (r *tableRepo) Create(ctx context.Context, t *model.Table) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *tableRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	var t model.Table
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *tableRepo) FindByNumber(ctx context.Context, number int) (*model.Table, error) {
	var t model.Table
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *tableRepo) Update(ctx context.Context, t *model.Table) error {
	return updateVersioned(ctx, r.db, t, &t.Version)
}

func (r *tableRepo) List(ctx context.Context, status string) ([]model.Table, error) {
	var tables []model.Table
	q := r.db.WithContext(ctx).Model(&model.Table{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("number ASC").Find(&tables).Error
	return tables, err
}

func (r *tableRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Table{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.Count
	}
	return out, nil
}
