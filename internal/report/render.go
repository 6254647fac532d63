// Package report renders ESG report artifacts from a tenant's emission
// entries. Two formats are supported: CSV for spreadsheet import and a
// self-contained HTML page for sharing.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

// Input carries everything a renderer needs.
type Input struct {
	Tenant      *domain.Tenant
	Title       string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Entries     []*domain.Entry
	Summary     []repository.EntrySummaryRow
	GeneratedAt time.Time
}

// Result is a rendered artifact with its totals.
type Result struct {
	Data        []byte
	ContentType string
	TotalCO2eKg float64
	EntryCount  int64
}

// Render produces the artifact in the requested format.
func Render(format domain.ReportFormat, input Input) (*Result, error) {
	switch format {
	case domain.ReportFormatCSV:
		return renderCSV(input)
	case domain.ReportFormatHTML:
		return renderHTML(input)
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

func totals(input Input) (co2e float64, count int64) {
	for _, row := range input.Summary {
		co2e += row.CO2eKg
		count += row.EntryCount
	}
	return co2e, count
}

func renderCSV(input Input) (*Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"utility_type", "provider", "period_start", "period_end",
		"consumption", "unit", "amount_myr", "co2e_kg", "source"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, e := range input.Entries {
		record := []string{
			string(e.UtilityType),
			e.Provider,
			e.PeriodStart.Format("2006-01-02"),
			e.PeriodEnd.Format("2006-01-02"),
			strconv.FormatFloat(e.Consumption, 'f', 2, 64),
			e.Unit,
			strconv.FormatFloat(e.AmountMYR, 'f', 2, 64),
			strconv.FormatFloat(e.CO2eKg, 'f', 3, 64),
			string(e.Source),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}

	co2e, count := totals(input)
	return &Result{
		Data:        buf.Bytes(),
		ContentType: "text/csv; charset=utf-8",
		TotalCO2eKg: co2e,
		EntryCount:  count,
	}, nil
}

// htmlReport is the template model.
type htmlReport struct {
	Title       string
	TenantName  string
	UEN         string
	PeriodStart string
	PeriodEnd   string
	GeneratedAt string
	Summary     []htmlSummaryRow
	Entries     []htmlEntryRow
	TotalCO2e   string
	TotalAmount string
	EntryCount  string
}

type htmlSummaryRow struct {
	UtilityType string
	EntryCount  string
	Consumption string
	AmountMYR   string
	CO2eKg      string
}

type htmlEntryRow struct {
	UtilityType string
	Provider    string
	Period      string
	Consumption string
	Unit        string
	AmountMYR   string
	CO2eKg      string
	Source      string
}

func renderHTML(input Input) (*Result, error) {
	// en-MY grouping: 12,345.67 matches how Malaysian bills print
	// figures.
	printer := message.NewPrinter(language.Make("en-MY"))

	co2e, count := totals(input)
	var totalAmount float64
	model := htmlReport{
		Title:       input.Title,
		TenantName:  input.Tenant.Name,
		UEN:         input.Tenant.UEN,
		PeriodStart: input.PeriodStart.Format("2 January 2006"),
		PeriodEnd:   input.PeriodEnd.Format("2 January 2006"),
		GeneratedAt: input.GeneratedAt.Format("2 January 2006 15:04 MST"),
		TotalCO2e:   printer.Sprintf("%.2f", co2e),
		EntryCount:  printer.Sprintf("%d", count),
	}

	for _, row := range input.Summary {
		totalAmount += row.AmountMYR
		model.Summary = append(model.Summary, htmlSummaryRow{
			UtilityType: string(row.UtilityType),
			EntryCount:  printer.Sprintf("%d", row.EntryCount),
			Consumption: printer.Sprintf("%.2f", row.Consumption),
			AmountMYR:   printer.Sprintf("%.2f", row.AmountMYR),
			CO2eKg:      printer.Sprintf("%.2f", row.CO2eKg),
		})
	}
	model.TotalAmount = printer.Sprintf("%.2f", totalAmount)

	for _, e := range input.Entries {
		model.Entries = append(model.Entries, htmlEntryRow{
			UtilityType: string(e.UtilityType),
			Provider:    e.Provider,
			Period:      e.PeriodStart.Format("2 Jan 2006") + " to " + e.PeriodEnd.Format("2 Jan 2006"),
			Consumption: printer.Sprintf("%.2f", e.Consumption),
			Unit:        e.Unit,
			AmountMYR:   printer.Sprintf("%.2f", e.AmountMYR),
			CO2eKg:      printer.Sprintf("%.2f", e.CO2eKg),
			Source:      string(e.Source),
		})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: "text/html; charset=utf-8",
		TotalCO2eKg: co2e,
		EntryCount:  count,
	}, nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 52rem; color: #1a1a1a; }
h1 { font-size: 1.5rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #d0d0d0; padding: 0.5rem 0.75rem; text-align: right; }
th:first-child, td:first-child { text-align: left; }
th { background: #f4f4f4; }
tfoot td { font-weight: 600; }
.meta { color: #555; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">{{.TenantName}} (UEN {{.UEN}})<br>
Reporting period: {{.PeriodStart}} to {{.PeriodEnd}}<br>
Generated: {{.GeneratedAt}}</p>
<table>
<thead>
<tr><th>Utility</th><th>Entries</th><th>Consumption</th><th>Amount (MYR)</th><th>CO2e (kg)</th></tr>
</thead>
<tbody>
{{range .Summary}}<tr><td>{{.UtilityType}}</td><td>{{.EntryCount}}</td><td>{{.Consumption}}</td><td>{{.AmountMYR}}</td><td>{{.CO2eKg}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td>Total</td><td>{{.EntryCount}}</td><td></td><td>{{.TotalAmount}}</td><td>{{.TotalCO2e}}</td></tr>
</tfoot>
</table>
<h2>Entries</h2>
<table>
<thead>
<tr><th>Utility</th><th>Provider</th><th>Period</th><th>Consumption</th><th>Unit</th><th>Amount (MYR)</th><th>CO2e (kg)</th><th>Source</th></tr>
</thead>
<tbody>
{{range .Entries}}<tr><td>{{.UtilityType}}</td><td>{{.Provider}}</td><td>{{.Period}}</td><td>{{.Consumption}}</td><td>{{.Unit}}</td><td>{{.AmountMYR}}</td><td>{{.CO2eKg}}</td><td>{{.Source}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))
