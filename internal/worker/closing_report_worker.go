package worker

// closing_report_worker.go
// Renders the closing report PDF of a register and mails it when recipients
// are configured.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/infra"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportMailer is satisfied by *infra.Mailer.
type ReportMailer interface {
	SendReport(to []string, subject, body, pdfPath string) error
}

type ClosingReportWorker struct {
	registers   repository.CashRegisterRepository
	mailer      ReportMailer
	storagePath string
	recipients  []string
}

// NewClosingReportWorker wires the report worker. mailer may be nil, in which
// case reports are only written to storagePath.
func NewClosingReportWorker(registers repository.CashRegisterRepository, mailer ReportMailer, storagePath string, recipients []string) *ClosingReportWorker {
	return &ClosingReportWorker{registers: registers, mailer: mailer, storagePath: storagePath, recipients: recipients}
}

func (w *ClosingReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ClosingReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("closing_report_worker: invalid payload")
		return nil
	}
	id, err := uuid.Parse(payload.RegisterID)
	if err != nil {
		log.Error().Str("register_id", payload.RegisterID).Msg("closing_report_worker: invalid register_id")
		return nil
	}

	reg, err := w.registers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn().Str("register_id", payload.RegisterID).Msg("closing_report_worker: register not found, skipping")
			return nil
		}
		return fmt.Errorf("load register: %w", err)
	}

	report := service.BuildRegisterReport(reg)
	path, err := infra.GenerateClosingReportPDF(reg, report, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("register_id", payload.RegisterID).Str("path", path).Msg("closing_report_worker: report written")

	if w.mailer == nil || len(w.recipients) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Fechamento de caixa %s", reg.ID.String()[:8])
	body := fmt.Sprintf("Total de vendas: R$ %s\nDinheiro esperado: R$ %s\n",
		report.TotalSales.StringFixed(2), report.ExpectedCash.StringFixed(2))
	if report.Difference != nil {
		body += fmt.Sprintf("Diferenca: R$ %s\n", report.Difference.StringFixed(2))
	}
	if err := w.mailer.SendReport(w.recipients, subject, body, path); err != nil {
		return fmt.Errorf("mail report: %w", err)
	}
	log.Info().Strs("to", w.recipients).Str("register_id", payload.RegisterID).Msg("closing_report_worker: report mailed")
	return nil
}
