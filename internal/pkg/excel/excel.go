package excel

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const payrollSheet = "Payroll"

var payrollHeaders = []string{
	"Employee ID", "Employee Code", "Employee Name", "Month",
	"Total Hours", "Total Salary", "Status", "Paid At",
}

// PayrollRow is one line of a monthly payroll export.
type PayrollRow struct {
	EmployeeID   string
	EmployeeCode string
	EmployeeName string
	Month        string
	TotalHours   decimal.Decimal
	TotalSalary  decimal.Decimal
	Status       string
	PaidAt       string
}

// PayrollWorkbook renders rows into an xlsx document.
func PayrollWorkbook(rows []PayrollRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", payrollSheet); err != nil {
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}

	for i, header := range payrollHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(payrollSheet, cell, header); err != nil {
			return nil, fmt.Errorf("error writing header: %w", err)
		}
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("error creating style: %w", err)
	}

	for i, row := range rows {
		r := i + 2
		values := []any{
			row.EmployeeID,
			row.EmployeeCode,
			row.EmployeeName,
			row.Month,
			nil,
			nil,
			row.Status,
			row.PaidAt,
		}
		start, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow(payrollSheet, start, &values); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", r, err)
		}

		// Amounts go in as numeric cells holding the exact two-place
		// decimal text, never through float64.
		for col, amount := range map[int]decimal.Decimal{5: row.TotalHours, 6: row.TotalSalary} {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			if err := f.SetCellDefault(payrollSheet, cell, amount.StringFixed(2)); err != nil {
				return nil, fmt.Errorf("error writing amount %s: %w", cell, err)
			}
		}
	}

	if len(rows) > 0 {
		from, _ := excelize.CoordinatesToCellName(5, 2)
		to, _ := excelize.CoordinatesToCellName(6, len(rows)+1)
		if err := f.SetCellStyle(payrollSheet, from, to, moneyStyle); err != nil {
			return nil, fmt.Errorf("error styling amounts: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
