package report

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

func sampleInput() Input {
	tenantID := uuid.New()
	return Input{
		Tenant: &domain.Tenant{
			ID:   tenantID,
			Name: "Syarikat Contoh Sdn Bhd",
			UEN:  "202301012345",
			Tier: domain.TierStandard,
		},
		Title:       "ESG Report Q2 2026",
		PeriodStart: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Entries: []*domain.Entry{
			{
				ID:          uuid.New(),
				TenantID:    tenantID,
				UtilityType: domain.UtilityElectricity,
				Provider:    "TNB",
				PeriodStart: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
				PeriodEnd:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
				Consumption: 842,
				Unit:        "kWh",
				AmountMYR:   376.54,
				CO2eKg:      491.73,
				Source:      domain.EntrySourceBill,
			},
			{
				ID:          uuid.New(),
				TenantID:    tenantID,
				UtilityType: domain.UtilityWater,
				Provider:    "Air Selangor",
				PeriodStart: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
				PeriodEnd:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
				Consumption: 35,
				Unit:        "m3",
				AmountMYR:   52.15,
				CO2eKg:      12.04,
				Source:      domain.EntrySourceManual,
			},
		},
		Summary: []repository.EntrySummaryRow{
			{UtilityType: domain.UtilityElectricity, EntryCount: 1, Consumption: 842, AmountMYR: 376.54, CO2eKg: 491.73},
			{UtilityType: domain.UtilityWater, EntryCount: 1, Consumption: 35, AmountMYR: 52.15, CO2eKg: 12.04},
		},
		GeneratedAt: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
	}
}

func TestRender_CSV(t *testing.T) {
	result, err := Render(domain.ReportFormatCSV, sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)
	assert.Equal(t, int64(2), result.EntryCount)
	assert.InDelta(t, 503.77, result.TotalCO2eKg, 0.01)

	body := string(result.Data)
	assert.Contains(t, body, "electricity")
	assert.Contains(t, body, "TNB")
	assert.Contains(t, body, "842")
	// Header row plus two entries
	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Len(t, lines, 3)
}

func TestRender_HTML(t *testing.T) {
	result, err := Render(domain.ReportFormatHTML, sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "text/html; charset=utf-8", result.ContentType)
	body := string(result.Data)
	assert.Contains(t, body, "Syarikat Contoh Sdn Bhd")
	assert.Contains(t, body, "202301012345")
	assert.Contains(t, body, "ESG Report Q2 2026")
	// Entries detail table lists every entry with its provider.
	assert.Contains(t, body, "Air Selangor")
	assert.Contains(t, body, "TNB")
	assert.Contains(t, body, "842.00")
}

func TestRender_HTMLEscapesContent(t *testing.T) {
	input := sampleInput()
	input.Tenant.Name = "<script>alert(1)</script>"

	result, err := Render(domain.ReportFormatHTML, input)
	require.NoError(t, err)

	assert.NotContains(t, string(result.Data), "<script>alert(1)</script>")
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(domain.ReportFormat("pdf"), sampleInput())
	assert.Error(t, err)
}
