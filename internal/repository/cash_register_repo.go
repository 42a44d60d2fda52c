package repository

import (
	"context"
	"encoding/json"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CashRegisterRepository interface {
	// Create returns ErrDuplicate when another register is already open.
	Create(ctx context.Context, r *model.CashRegister) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
	// FindOpen returns ErrNotFound when no register is open.
	FindOpen(ctx context.Context) (*model.CashRegister, error)
	Update(ctx context.Context, r *model.CashRegister) error
	// HasSale reports whether any register's sales log holds orderID.
	HasSale(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type cashRegisterRepo struct{ db *gorm.DB }

func NewCashRegisterRepository(db *gorm.DB) CashRegisterRepository {
	return &cashRegisterRepo{db: db}
}

func (r *cashRegisterRepo) Create(ctx context.Context, reg *model.CashRegister) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	if reg.SalesLog == nil {
		reg.SalesLog = model.SalesLog{}
	}
	return translate(r.db.WithContext(ctx).Create(reg).Error)
}

func (r *cashRegisterRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	if err := r.db.WithContext(ctx).First(&reg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (r *cashRegisterRepo) FindOpen(ctx context.Context) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).
		Where("status = ?", model.RegisterOpen).
		Order("opened_at DESC").
		First(&reg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (r *cashRegisterRepo) Update(ctx context.Context, reg *model.CashRegister) error {
	return updateVersioned(ctx, r.db, reg, &reg.Version)
}

func (r *cashRegisterRepo) HasSale(ctx context.Context, orderID uuid.UUID) (bool, error) {
	needle, err := json.Marshal([]map[string]string{{"order_id": orderID.String()}})
	if err != nil {
		return false, err
	}
	var n int64
	err = r.db.WithContext(ctx).Model(&model.CashRegister{}).
		Where("sales_log @> ?::jsonb", string(needle)).
		Count(&n).Error
	return n > 0, err
}
