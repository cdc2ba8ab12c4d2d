package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/application/dto"
	"github.com/fieldops/stockrecon/pkg/application/services/consistency"
	"github.com/fieldops/stockrecon/pkg/application/services/projection"
	"github.com/fieldops/stockrecon/pkg/application/services/reconciliation"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// Report is everything one stockrecon run prints or exports
type Report struct {
	Revision    string                          `json:"revision,omitempty"`
	Policy      string                          `json:"policy"`
	Threshold   entities.Quantity               `json:"low_stock_threshold"`
	Lines       []dto.StockLine                 `json:"lines"`
	TotalValue  decimal.Decimal                 `json:"total_value"`
	Negative    []dto.NegativeStock             `json:"negative_stock"`
	Diagnostics []reconciliation.ReferenceError `json:"diagnostics"`
	Checks      []Check                         `json:"checks,omitempty"`
}

// NewReport gathers the filtered stock lines of a view with its negative
// cells and diagnostics. TotalValue is the value of the selected lines.
func NewReport(view *projection.View, filter projection.Filter, policy string) *Report {
	lines := view.Lines(filter)
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Value)
	}

	return &Report{
		Revision:    view.Revision(),
		Policy:      policy,
		Threshold:   view.LowStockThreshold(),
		Lines:       lines,
		TotalValue:  total,
		Negative:    consistency.NegativeStockReport(view.Result().Quantities),
		Diagnostics: view.Diagnostics(),
	}
}

// Check is the outcome of one consistency check
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Config holds configuration for output generation
type Config struct {
	Format        string
	OutputDir     string
	Verbose       bool
	ReconcileTime time.Duration
	// Out receives console output; os.Stdout when nil
	Out io.Writer
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Output file names inside Config.OutputDir
const (
	TextFile       = "stock_report.txt"
	JSONFile       = "stock_report.json"
	XLSXFile       = "stock_report.xlsx"
	LinesCSV       = "stock_lines.csv"
	NegativeCSV    = "negative_stock.csv"
	DiagnosticsCSV = "diagnostics.csv"
)

// Generate creates output in the specified format
func Generate(report *Report, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, config)
	case "csv":
		return generateCSVOutput(report, config)
	case "xlsx":
		return generateXLSXOutput(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput prints human-readable tables and, with an output
// directory, saves the same text to a file
func generateTextOutput(report *Report, config Config) error {
	if config.OutputDir == "" {
		return WriteText(config.out(), report, config.ReconcileTime)
	}

	filename, err := outputFile(config.OutputDir, TextFile)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create text file: %w", err)
	}
	defer file.Close()

	if err := WriteText(io.MultiWriter(config.out(), file), report, config.ReconcileTime); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.out(), "Results saved to: %s\n", filename)
	}
	return nil
}

// WriteText renders the report as aligned tables
func WriteText(w io.Writer, report *Report, elapsed time.Duration) error {
	p := &printer{w: w}

	p.printf("Stock Reconciliation Summary\n")
	p.printf("============================\n\n")
	if report.Revision != "" {
		p.printf("Revision: %s\n", report.Revision)
	}
	p.printf("Policy: %s\n", report.Policy)
	p.printf("Lines: %d\n", len(report.Lines))
	p.printf("Total Value: %s\n", report.TotalValue.StringFixed(2))
	p.printf("Negative Cells: %d\n", len(report.Negative))
	p.printf("Diagnostics: %d\n", len(report.Diagnostics))
	if elapsed > 0 {
		p.printf("Reconcile Time: %v\n", elapsed)
	}
	p.printf("\n")

	if len(report.Lines) > 0 {
		p.printf("Stock (low below %d):\n", report.Threshold)
		p.printf("%-10s %-20s %-10s %-10s %-12s %10s %12s %-4s\n",
			"Location", "Name", "Kind", "Product", "Code", "Qty", "Value", "Low")
		p.printf("%-10s %-20s %-10s %-10s %-12s %10s %12s %-4s\n",
			"----------", "--------------------", "----------", "----------", "------------", "----------", "------------", "----")
		for _, line := range report.Lines {
			low := ""
			if line.LowStock {
				low = "yes"
			}
			p.printf("%-10s %-20s %-10s %-10s %-12s %10d %12s %-4s\n",
				line.LocationID,
				line.LocationName,
				line.LocationKind,
				line.ProductID,
				line.ProductCode,
				line.Quantity,
				line.Value.StringFixed(2),
				low)
		}
		p.printf("\n")
	}

	if len(report.Negative) > 0 {
		p.printf("Negative Stock:\n")
		p.printf("%-10s %-10s %10s\n", "Location", "Product", "Qty")
		p.printf("%-10s %-10s %10s\n", "----------", "----------", "----------")
		for _, n := range report.Negative {
			p.printf("%-10s %-10s %10d\n", n.LocationID, n.ProductID, n.Quantity)
		}
		p.printf("\n")
	}

	if len(report.Diagnostics) > 0 {
		p.printf("Skipped Line Items:\n")
		for _, d := range report.Diagnostics {
			p.printf("  %s\n", d.Error())
		}
		p.printf("\n")
	}

	if len(report.Checks) > 0 {
		p.printf("Consistency Checks:\n")
		for _, c := range report.Checks {
			status := "PASS"
			if !c.Passed {
				status = "FAIL"
			}
			if c.Detail != "" {
				p.printf("  [%s] %s: %s\n", status, c.Name, c.Detail)
			} else {
				p.printf("  [%s] %s\n", status, c.Name)
			}
		}
		p.printf("\n")
	}

	return p.err
}

// printer keeps the first write error so table code can stay linear
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// generateJSONOutput creates JSON output
func generateJSONOutput(report *Report, config Config) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.out(), string(jsonData))
		return err
	}

	filename, err := outputFile(config.OutputDir, JSONFile)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.out(), "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per table
func generateCSVOutput(report *Report, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	linesFile, err := outputFile(config.OutputDir, LinesCSV)
	if err != nil {
		return err
	}
	if err := writeLinesCSV(report.Lines, linesFile); err != nil {
		return fmt.Errorf("failed to write stock lines CSV: %w", err)
	}

	negativeFile := filepath.Join(config.OutputDir, NegativeCSV)
	if err := writeNegativeCSV(report.Negative, negativeFile); err != nil {
		return fmt.Errorf("failed to write negative stock CSV: %w", err)
	}

	diagnosticsFile := filepath.Join(config.OutputDir, DiagnosticsCSV)
	if err := writeDiagnosticsCSV(report.Diagnostics, diagnosticsFile); err != nil {
		return fmt.Errorf("failed to write diagnostics CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.out(), "CSV results saved to:\n")
		fmt.Fprintf(config.out(), "  Stock Lines: %s\n", linesFile)
		fmt.Fprintf(config.out(), "  Negative Stock: %s\n", negativeFile)
		fmt.Fprintf(config.out(), "  Diagnostics: %s\n", diagnosticsFile)
	}
	return nil
}

// generateXLSXOutput saves the report as a workbook
func generateXLSXOutput(report *Report, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}

	filename, err := outputFile(config.OutputDir, XLSXFile)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	defer file.Close()

	if err := WriteXLSX(file, report); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.out(), "Workbook saved to: %s\n", filename)
	}
	return nil
}

// outputFile creates dir if needed and returns the path of name inside it
func outputFile(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func writeCSV(filename string, header []string, records [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

func writeLinesCSV(lines []dto.StockLine, filename string) error {
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, []string{
			string(line.LocationID),
			line.LocationName,
			string(line.LocationKind),
			string(line.ProductID),
			line.ProductCode,
			strconv.FormatInt(int64(line.Quantity), 10),
			line.UnitPrice.String(),
			line.Value.String(),
			strconv.FormatBool(line.LowStock),
		})
	}
	return writeCSV(filename, []string{
		"location_id", "location_name", "location_kind", "product_id", "product_code",
		"quantity", "unit_price", "value", "low_stock",
	}, records)
}

func writeNegativeCSV(negative []dto.NegativeStock, filename string) error {
	records := make([][]string, 0, len(negative))
	for _, n := range negative {
		records = append(records, []string{
			string(n.LocationID),
			string(n.ProductID),
			strconv.FormatInt(int64(n.Quantity), 10),
		})
	}
	return writeCSV(filename, []string{"location_id", "product_id", "quantity"}, records)
}

func writeDiagnosticsCSV(diagnostics []reconciliation.ReferenceError, filename string) error {
	records := make([][]string, 0, len(diagnostics))
	for _, d := range diagnostics {
		records = append(records, []string{
			string(d.Event),
			d.EventID,
			strconv.Itoa(d.Line),
			string(d.Reason),
			string(d.ProductID),
			string(d.LocationID),
			d.Error(),
		})
	}
	return writeCSV(filename, []string{"event", "event_id", "line", "reason", "product_id", "location_id", "message"}, records)
}
