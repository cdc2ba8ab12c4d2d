package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	StockSheet       = "Stock"
	NegativeSheet    = "Negative"
	DiagnosticsSheet = "Diagnostics"
)

// WriteXLSX writes the report as a workbook with one sheet per table
func WriteXLSX(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StockSheet); err != nil {
		return err
	}
	for _, sheet := range []string{NegativeSheet, DiagnosticsSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	stock := make([][]interface{}, 0, len(report.Lines))
	for _, line := range report.Lines {
		stock = append(stock, []interface{}{
			string(line.LocationID),
			line.LocationName,
			string(line.LocationKind),
			string(line.ProductID),
			line.ProductCode,
			int64(line.Quantity),
			line.UnitPrice.InexactFloat64(),
			line.Value.InexactFloat64(),
			line.LowStock,
		})
	}
	if err := writeSheet(f, StockSheet, header, []interface{}{
		"Location", "Name", "Kind", "Product", "Code", "Quantity", "Unit Price", "Value", "Low Stock",
	}, stock); err != nil {
		return err
	}

	// total row under the stock table
	totalRow := len(stock) + 2
	labelCell, _ := excelize.CoordinatesToCellName(7, totalRow)
	valueCell, _ := excelize.CoordinatesToCellName(8, totalRow)
	if err := f.SetCellValue(StockSheet, labelCell, "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(StockSheet, valueCell, report.TotalValue.InexactFloat64()); err != nil {
		return err
	}

	negative := make([][]interface{}, 0, len(report.Negative))
	for _, n := range report.Negative {
		negative = append(negative, []interface{}{string(n.LocationID), string(n.ProductID), int64(n.Quantity)})
	}
	if err := writeSheet(f, NegativeSheet, header, []interface{}{"Location", "Product", "Quantity"}, negative); err != nil {
		return err
	}

	diagnostics := make([][]interface{}, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		diagnostics = append(diagnostics, []interface{}{
			string(d.Event), d.EventID, d.Line, string(d.Reason), string(d.ProductID), string(d.LocationID), d.Error(),
		})
	}
	if err := writeSheet(f, DiagnosticsSheet, header, []interface{}{
		"Event", "Event ID", "Line", "Reason", "Product", "Location", "Message",
	}, diagnostics); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 16)
}
