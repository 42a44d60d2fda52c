package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultsService creates the records other operations need when they are
// missing. Both operations are idempotent.
type DefaultsService interface {
	// EnsureDefaultEmployee returns the first active employee, creating one if
	// the store has none.
	EnsureDefaultEmployee(ctx context.Context) (*model.Employee, error)
	// EnsureOpenRegister returns the open register, opening one with amount 0
	// when none is open.
	EnsureOpenRegister(ctx context.Context) (*model.CashRegister, error)
}

type defaultsService struct {
	employees    repository.EmployeeRepository
	registers    repository.CashRegisterRepository
	employeeName string

	mu sync.Mutex
}

func NewDefaultsService(
	employees repository.EmployeeRepository,
	registers repository.CashRegisterRepository,
	defaultEmployeeName string,
) DefaultsService {
	if defaultEmployeeName == "" {
		defaultEmployeeName = "Administrator"
	}
	return &defaultsService{employees: employees, registers: registers, employeeName: defaultEmployeeName}
}

func (s *defaultsService) EnsureDefaultEmployee(ctx context.Context) (*model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureEmployeeLocked(ctx)
}

func (s *defaultsService) ensureEmployeeLocked(ctx context.Context) (*model.Employee, error) {
	e, err := s.employees.FindFirstActive(ctx)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.Internal(err, "failed to look up employees")
	}

	e = &model.Employee{Name: s.employeeName, Role: "admin", Active: true}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, apierror.Internal(err, "failed to create default employee")
	}
	log.Warn().Str("employee_id", e.ID.String()).Str("name", e.Name).Msg("no active employee found, default employee created")
	return e, nil
}

func (s *defaultsService) EnsureOpenRegister(ctx context.Context) (*model.CashRegister, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.registers.FindOpen(ctx)
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.Internal(err, "failed to look up open register")
	}

	opener, err := s.ensureEmployeeLocked(ctx)
	if err != nil {
		return nil, err
	}

	reg = &model.CashRegister{
		Status:        model.RegisterOpen,
		OpenedBy:      opener.ID,
		OpenedAt:      time.Now().UTC(),
		OpeningAmount: decimal.Zero,
		SalesLog:      model.SalesLog{},
	}
	if err := s.registers.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Another replica opened one first.
			existing, ferr := s.registers.FindOpen(ctx)
			if ferr != nil {
				return nil, apierror.Internal(ferr, "failed to look up open register")
			}
			return existing, nil
		}
		return nil, apierror.Internal(err, "failed to open register")
	}
	log.Info().Str("register_id", reg.ID.String()).Str("opened_by", opener.ID.String()).Msg("register auto-opened")
	return reg, nil
}
