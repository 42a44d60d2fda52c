package infra

// pdf.go renders the closing report of a cash register with go-pdf/fpdf:
// header with register id and opening/closing times, payment method totals,
// expected versus counted cash, and the sales log.
//
// The output file is saved to storagePath/register_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateClosingReportPDF writes the closing report of reg and returns the
// path of the generated file. storagePath is created if needed.
func GenerateClosingReportPDF(reg *model.CashRegister, report *dto.RegisterReportResponse, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("register_%s.pdf", reg.ID))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, "Fechamento de caixa", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, reg.ID.String(), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Aberto em: "+reg.OpenedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	if reg.ClosedAt != nil {
		pdf.CellFormat(contentW, 5, "Fechado em: "+reg.ClosedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	// ── Totals ───────────────────────────────────────────────────────────────
	label := contentW * 0.6
	value := contentW * 0.4
	row := func(name, amount string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(label, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(value, 6, amount, "", 1, "R", false, 0, "")
	}

	row("Fundo de troco", money(report.OpeningAmount.StringFixed(2)), false)
	row("Dinheiro", money(report.TotalCash.StringFixed(2)), false)
	row("Cartao", money(report.TotalCard.StringFixed(2)), false)
	row("Pix", money(report.TotalPix.StringFixed(2)), false)
	row(fmt.Sprintf("Total de vendas (%d)", report.SalesCount), money(report.TotalSales.StringFixed(2)), true)
	pdf.Ln(2)
	row("Dinheiro esperado", money(report.ExpectedCash.StringFixed(2)), false)
	if report.ClosingAmount != nil {
		row("Dinheiro contado", money(report.ClosingAmount.StringFixed(2)), false)
	}
	if report.Difference != nil {
		row("Diferenca", money(report.Difference.StringFixed(2)), true)
	}
	if report.ClosingNote != nil && *report.ClosingNote != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, "Obs: "+*report.ClosingNote, "", "L", false)
	}

	// ── Sales log ────────────────────────────────────────────────────────────
	pdf.Ln(4)
	col1 := contentW * 0.30
	col2 := contentW * 0.40
	col3 := contentW * 0.15
	col4 := contentW * 0.15

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 5, "Hora", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Pedido", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "Forma", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col4, 5, "Valor", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, e := range reg.SalesLog {
		pdf.CellFormat(col1, 5, e.Timestamp.Format("02/01 15:04:05"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, e.OrderID.String()[:8], "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, e.PaymentMethod, "", 0, "C", false, 0, "")
		pdf.CellFormat(col4, 5, money(e.Amount.StringFixed(2)), "", 1, "R", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func money(s string) string { return "R$ " + s }
