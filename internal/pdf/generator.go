package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/bpkad/budget-exec/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

// Generate renders the printable contract summary: header, budget position,
// then the target, installment and guarantee tables.
func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Contract Summary", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract No. %s, dated %s", doc.Contract.ContractNumber, formatDate(doc.Contract.ContractDate)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Execution %s to %s", formatDate(doc.Contract.ExecutionStart), formatDate(doc.Contract.ExecutionEnd)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Commitment", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Provider: %s", doc.Contract.Provider), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Work package: %s", doc.WorkPackage.Description), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Budget code: %s %s", doc.Account.Code, doc.Account.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Value: %s (HPS %s)", formatAmount(doc.Contract.Value), formatAmount(doc.Contract.EstimatedPrice)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Allocation: ceiling %s, committed %s, remaining %s",
		formatAmount(doc.Balance.Ceiling),
		formatAmount(doc.Balance.Used),
		formatAmount(doc.Balance.Remaining),
	), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(doc.Targets) > 0 {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Progress Targets", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)

		headers := []string{"Date", "Physical %", "Financial %", "Financial Amount"}
		widths := []float64{40, 35, 35, 60}
		drawTableRow(pdf, g.fontName, headers, widths, true)
		for _, target := range doc.Targets {
			drawTableRow(pdf, g.fontName, []string{
				formatDate(target.Date),
				fmt.Sprintf("%.2f", target.PhysicalPercent),
				fmt.Sprintf("%.2f", target.FinancialPercent),
				formatAmount(target.FinancialAmount),
			}, widths, false)
		}
		pdf.Ln(2)
	}

	if len(doc.Installments) > 0 {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Payment Installments", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)

		headers := []string{"Installment", "Share %", "Amount", "Progress %"}
		widths := []float64{50, 30, 60, 30}
		drawTableRow(pdf, g.fontName, headers, widths, true)
		for _, row := range doc.Installments {
			drawTableRow(pdf, g.fontName, []string{
				row.Label,
				fmt.Sprintf("%.0f", row.PercentShare),
				formatAmount(row.Amount),
				fmt.Sprintf("%.2f", row.ProgressPercent),
			}, widths, false)
		}
		pdf.Ln(2)
	}

	if len(doc.Guarantees) > 0 {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Guarantees", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)

		headers := []string{"Number", "Type", "Valid From", "Valid To", "Value"}
		widths := []float64{45, 30, 30, 30, 45}
		drawTableRow(pdf, g.fontName, headers, widths, true)
		for _, row := range doc.Guarantees {
			drawTableRow(pdf, g.fontName, []string{
				row.Number,
				row.Type,
				formatDate(row.ValidFrom),
				formatDate(row.ValidTo),
				formatAmount(row.Value),
			}, widths, false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cells []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}

func formatAmount(value int64) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	str := fmt.Sprintf("%d", value)
	if len(str) <= 3 {
		return sign + str
	}
	var out []byte
	for i, digit := range []byte(str) {
		if i > 0 && (len(str)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digit)
	}
	return sign + string(out)
}
