package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/metrics"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CashRegisterService interface {
	Open(ctx context.Context, employeeID uuid.UUID, req dto.OpenRegisterRequest) (*dto.CashRegisterResponse, error)
	// RegisterSale appends a sale to the open register, opening one if needed.
	// Registering the same order twice on a register is a no-op.
	RegisterSale(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method string) (*dto.CashRegisterResponse, error)
	Close(ctx context.Context, id, employeeID uuid.UUID, req dto.CloseRegisterRequest) (*dto.CashRegisterResponse, error)
	CurrentOpen(ctx context.Context) (*dto.CashRegisterResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CashRegisterResponse, error)
	Report(ctx context.Context, id uuid.UUID) (*dto.RegisterReportResponse, error)
}

type cashRegisterService struct {
	registers repository.CashRegisterRepository
	employees repository.EmployeeRepository
	defaults  DefaultsService
	jobs      JobQueue

	// mu serializes every read-modify-write of a register in this process.
	mu sync.Mutex
}

func NewCashRegisterService(
	registers repository.CashRegisterRepository,
	employees repository.EmployeeRepository,
	defaults DefaultsService,
	jobs JobQueue,
) CashRegisterService {
	return &cashRegisterService{registers: registers, employees: employees, defaults: defaults, jobs: jobs}
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *cashRegisterService) Open(ctx context.Context, employeeID uuid.UUID, req dto.OpenRegisterRequest) (*dto.CashRegisterResponse, error) {
	if employeeID == uuid.Nil {
		return nil, apierror.Validation("employee is required to open a register")
	}
	if req.OpeningAmount.IsNegative() {
		return nil, apierror.Validation("opening amount cannot be negative")
	}
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.Validation("employee %s not found", employeeID)
		}
		return nil, storeErr(err, "employee")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if open, err := s.registers.FindOpen(ctx); err == nil {
		return nil, apierror.Conflict("register %s is already open", open.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr(err, "register")
	}

	reg := &model.CashRegister{
		Status:        model.RegisterOpen,
		OpenedBy:      employeeID,
		OpenedAt:      time.Now().UTC(),
		OpeningAmount: req.OpeningAmount,
		SalesLog:      model.SalesLog{},
	}
	if err := s.registers.Create(ctx, reg); err != nil {
		metrics.RecordOperation("register_open", err)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Conflict("a register is already open")
		}
		return nil, storeErr(err, "register")
	}
	metrics.RecordOperation("register_open", nil)
	log.Info().Str("register_id", reg.ID.String()).Str("opened_by", employeeID.String()).Msg("register opened")
	return registerToResponse(reg), nil
}

// ── RegisterSale ─────────────────────────────────────────────────────────────

func (s *cashRegisterService) RegisterSale(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method string) (*dto.CashRegisterResponse, error) {
	if orderID == uuid.Nil {
		return nil, apierror.Validation("order is required")
	}
	if amount.IsNegative() {
		return nil, apierror.Validation("sale amount cannot be negative")
	}
	method = NormalizePaymentMethod(method)

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var reg *model.CashRegister
		reg, err = s.defaults.EnsureOpenRegister(ctx)
		if err != nil {
			metrics.RecordOperation("register_sale", err)
			return nil, err
		}
		if reg.HasOrder(orderID) {
			return registerToResponse(reg), nil
		}
		reg.AppendSale(model.SaleEntry{
			OrderID:       orderID,
			Amount:        amount,
			PaymentMethod: method,
			Timestamp:     time.Now().UTC(),
		})
		if err = s.registers.Update(ctx, reg); err == nil {
			metrics.RecordOperation("register_sale", nil)
			log.Info().
				Str("register_id", reg.ID.String()).
				Str("order_id", orderID.String()).
				Str("amount", amount.StringFixed(2)).
				Str("method", method).
				Msg("sale registered")
			return registerToResponse(reg), nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) {
			break
		}
		log.Debug().Str("order_id", orderID.String()).Int("attempt", attempt+1).Msg("register changed concurrently, retrying sale")
	}
	metrics.RecordOperation("register_sale", err)
	return nil, storeErr(err, "register")
}

// ── Close ────────────────────────────────────────────────────────────────────

func (s *cashRegisterService) Close(ctx context.Context, id, employeeID uuid.UUID, req dto.CloseRegisterRequest) (*dto.CashRegisterResponse, error) {
	if employeeID == uuid.Nil {
		return nil, apierror.Validation("employee is required to close a register")
	}
	if req.ClosingAmount.IsNegative() {
		return nil, apierror.Validation("closing amount cannot be negative")
	}

	reg, err := s.closeRegister(ctx, id, employeeID, req)
	metrics.RecordOperation("register_close", err)
	if err != nil {
		return nil, err
	}
	log.Info().Str("register_id", id.String()).Str("closed_by", employeeID.String()).Msg("register closed")

	if s.jobs != nil {
		if err := s.jobs.EnqueueClosingReport(ctx, reg.ID); err != nil {
			log.Error().Err(err).Str("register_id", id.String()).Msg("failed to enqueue closing report")
		}
	}
	return registerToResponse(reg), nil
}

// closeRegister stamps the closing fields. A sale written by another replica
// between the read and the write is picked up by re-reading the register.
func (s *cashRegisterService) closeRegister(ctx context.Context, id, employeeID uuid.UUID, req dto.CloseRegisterRequest) (*model.CashRegister, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var reg *model.CashRegister
		reg, err = s.registers.FindByID(ctx, id)
		if err != nil {
			return nil, storeErr(err, "register")
		}
		if reg.Status != model.RegisterOpen {
			return nil, apierror.InvalidState("register %s is already closed", id)
		}

		now := time.Now().UTC()
		amount := req.ClosingAmount
		reg.Status = model.RegisterClosed
		reg.ClosedBy = &employeeID
		reg.ClosedAt = &now
		reg.ClosingAmount = &amount
		if req.Note != nil && *req.Note != "" {
			reg.ClosingNote = req.Note
		}
		if err = s.registers.Update(ctx, reg); err == nil {
			return reg, nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) {
			break
		}
		log.Debug().Str("register_id", id.String()).Int("attempt", attempt+1).Msg("register changed concurrently, retrying close")
	}
	return nil, storeErr(err, "register")
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *cashRegisterService) CurrentOpen(ctx context.Context) (*dto.CashRegisterResponse, error) {
	reg, err := s.registers.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("no register is open")
		}
		return nil, storeErr(err, "register")
	}
	return registerToResponse(reg), nil
}

func (s *cashRegisterService) Get(ctx context.Context, id uuid.UUID) (*dto.CashRegisterResponse, error) {
	reg, err := s.registers.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "register")
	}
	return registerToResponse(reg), nil
}

func (s *cashRegisterService) Report(ctx context.Context, id uuid.UUID) (*dto.RegisterReportResponse, error) {
	reg, err := s.registers.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "register")
	}
	return BuildRegisterReport(reg), nil
}

// BuildRegisterReport summarizes a register. Expected cash is the opening
// float plus cash sales.
func BuildRegisterReport(reg *model.CashRegister) *dto.RegisterReportResponse {
	expected := reg.OpeningAmount.Add(reg.TotalCash)
	resp := &dto.RegisterReportResponse{
		RegisterID:    reg.ID.String(),
		Status:        reg.Status,
		OpenedBy:      reg.OpenedBy.String(),
		OpenedAt:      reg.OpenedAt.UTC().Format(time.RFC3339),
		ClosedAt:      timeString(reg.ClosedAt),
		OpeningAmount: reg.OpeningAmount,
		SalesCount:    len(reg.SalesLog),
		TotalSales:    reg.TotalSales,
		TotalCash:     reg.TotalCash,
		TotalCard:     reg.TotalCard,
		TotalPix:      reg.TotalPix,
		ExpectedCash:  expected,
		ClosingAmount: reg.ClosingAmount,
		ClosingNote:   reg.ClosingNote,
	}
	if reg.Status == model.RegisterClosed && reg.ClosingAmount != nil {
		diff := reg.ClosingAmount.Sub(expected)
		resp.Difference = &diff
	}
	return resp
}
