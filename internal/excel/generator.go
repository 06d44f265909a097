package excel

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bpkad/budget-exec/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the budget realization recap: one summary sheet per
// organizational unit plus a contract register sheet.
func (g *Generator) Generate(report model.RealizationReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Realization"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	contractSheet := "Contracts"
	file.NewSheet(contractSheet)
	if err := g.writeContracts(file, contractSheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.RealizationReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Organizational Unit")
	set("B1", report.OrgUnitName)
	set("A2", "Budget Year")
	set("B2", report.BudgetYear)
	set("A3", "Generated")
	set("B3", formatDate(report.GeneratedAt))
	set("A4", "Total Ceiling")
	set("B4", sumCeiling(report))
	set("A5", "Total Committed")
	set("B5", sumCommitted(report))

	tableRow := 7
	set(fmt.Sprintf("A%d", tableRow), "Account Code")
	set(fmt.Sprintf("B%d", tableRow), "Account Name")
	set(fmt.Sprintf("C%d", tableRow), "Ceiling")
	set(fmt.Sprintf("D%d", tableRow), "Work Packages")
	set(fmt.Sprintf("E%d", tableRow), "Committed")
	set(fmt.Sprintf("F%d", tableRow), "Remaining")

	for i, row := range report.Rows {
		r := tableRow + 1 + i
		set(fmt.Sprintf("A%d", r), row.Account.Code)
		set(fmt.Sprintf("B%d", r), row.Account.Name)
		set(fmt.Sprintf("C%d", r), row.Ceiling)
		set(fmt.Sprintf("D%d", r), row.WorkPackages)
		set(fmt.Sprintf("E%d", r), row.Committed)
		set(fmt.Sprintf("F%d", r), row.Remaining)
	}

	return nil
}

func (g *Generator) writeContracts(file *excelize.File, sheet string, report model.RealizationReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"No", "Account Code", "Contract Number", "Provider", "Value", "Execution Start", "Execution End"}
	for i, header := range headers {
		column, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		set(column+"1", header)
	}

	row := 2
	index := 1
	for _, account := range report.Rows {
		for _, contract := range account.Contracts {
			set("A"+strconv.Itoa(row), index)
			set("B"+strconv.Itoa(row), account.Account.Code)
			set("C"+strconv.Itoa(row), contract.ContractNumber)
			set("D"+strconv.Itoa(row), contract.Provider)
			set("E"+strconv.Itoa(row), contract.Value)
			set("F"+strconv.Itoa(row), formatDate(contract.ExecutionStart))
			set("G"+strconv.Itoa(row), formatDate(contract.ExecutionEnd))
			row++
			index++
		}
	}

	return nil
}

func sumCeiling(report model.RealizationReport) int64 {
	var total int64
	for _, row := range report.Rows {
		total += row.Ceiling
	}
	return total
}

func sumCommitted(report model.RealizationReport) int64 {
	var total int64
	for _, row := range report.Rows {
		total += row.Committed
	}
	return total
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}
