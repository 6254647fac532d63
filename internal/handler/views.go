package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
	"github.com/tenagalabs/jejak/internal/service"
)

// View types are the JSON shapes returned by the API. They keep
// internal fields (password hashes, token hashes, storage keys) out of
// responses.

type userView struct {
	ID        uuid.UUID   `json:"id"`
	TenantID  uuid.UUID   `json:"tenantId"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

type entryView struct {
	ID          uuid.UUID          `json:"id"`
	UtilityType domain.UtilityType `json:"utilityType"`
	Provider    string             `json:"provider,omitempty"`
	PeriodStart time.Time          `json:"periodStart"`
	PeriodEnd   time.Time          `json:"periodEnd"`
	Consumption float64            `json:"consumption"`
	Unit        string             `json:"unit"`
	AmountMYR   float64            `json:"amountMyr"`
	CO2eKg      float64            `json:"co2eKg"`
	Source      domain.EntrySource `json:"source"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func toEntryView(e *domain.Entry) entryView {
	return entryView{
		ID:          e.ID,
		UtilityType: e.UtilityType,
		Provider:    e.Provider,
		PeriodStart: e.PeriodStart,
		PeriodEnd:   e.PeriodEnd,
		Consumption: e.Consumption,
		Unit:        e.Unit,
		AmountMYR:   e.AmountMYR,
		CO2eKg:      e.CO2eKg,
		Source:      e.Source,
		CreatedAt:   e.CreatedAt,
	}
}

func toEntryViews(entries []*domain.Entry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, toEntryView(e))
	}
	return views
}

type summaryView struct {
	UtilityType domain.UtilityType `json:"utilityType"`
	EntryCount  int64              `json:"entryCount"`
	Consumption float64            `json:"consumption"`
	AmountMYR   float64            `json:"amountMyr"`
	CO2eKg      float64            `json:"co2eKg"`
}

func toSummaryViews(rows []repository.EntrySummaryRow) []summaryView {
	views := make([]summaryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, summaryView{
			UtilityType: row.UtilityType,
			EntryCount:  row.EntryCount,
			Consumption: row.Consumption,
			AmountMYR:   row.AmountMYR,
			CO2eKg:      row.CO2eKg,
		})
	}
	return views
}

type reportView struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Format      domain.ReportFormat `json:"format"`
	PeriodStart time.Time           `json:"periodStart"`
	PeriodEnd   time.Time           `json:"periodEnd"`
	Status      domain.ReportStatus `json:"status"`
	TotalCO2eKg float64             `json:"totalCo2eKg"`
	EntryCount  int64               `json:"entryCount"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
}

func toReportView(rep *domain.Report) reportView {
	return reportView{
		ID:          rep.ID,
		Title:       rep.Title,
		Format:      rep.Format,
		PeriodStart: rep.PeriodStart,
		PeriodEnd:   rep.PeriodEnd,
		Status:      rep.Status,
		TotalCO2eKg: rep.TotalCO2eKg,
		EntryCount:  rep.EntryCount,
		Error:       rep.Error,
		CreatedAt:   rep.CreatedAt,
		CompletedAt: rep.CompletedAt,
	}
}

type invitationView struct {
	ID        uuid.UUID               `json:"id"`
	Email     string                  `json:"email"`
	Role      domain.Role             `json:"role"`
	Status    domain.InvitationStatus `json:"status"`
	ExpiresAt time.Time               `json:"expiresAt"`
	CreatedAt time.Time               `json:"createdAt"`
}

func toInvitationView(inv *domain.Invitation) invitationView {
	return invitationView{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      inv.Role,
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

type tenantView struct {
	ID          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	UEN         string                  `json:"uen"`
	Tier        domain.SubscriptionTier `json:"tier"`
	ContactName string                  `json:"contactName,omitempty"`
	Phone       string                  `json:"phone,omitempty"`
	Active      bool                    `json:"active"`
	CreatedAt   time.Time               `json:"createdAt"`
}

func toTenantView(t *domain.Tenant) tenantView {
	return tenantView{
		ID:          t.ID,
		Name:        t.Name,
		UEN:         t.UEN,
		Tier:        t.Tier,
		ContactName: t.ContactName,
		Phone:       t.Phone,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt,
	}
}

type auditView struct {
	ID        uuid.UUID          `json:"id"`
	ActorID   uuid.UUID          `json:"actorId"`
	Action    domain.AuditAction `json:"action"`
	Resource  string             `json:"resource"`
	Detail    string             `json:"detail,omitempty"`
	IP        string             `json:"ip,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

func toAuditViews(logs []*domain.AuditLog) []auditView {
	views := make([]auditView, 0, len(logs))
	for _, l := range logs {
		views = append(views, auditView{
			ID:        l.ID,
			ActorID:   l.ActorID,
			Action:    l.Action,
			Resource:  l.Resource,
			Detail:    l.Detail,
			IP:        l.IP,
			CreatedAt: l.CreatedAt,
		})
	}
	return views
}

type quotaStatusView struct {
	Current   int64     `json:"current"`
	Limit     int64     `json:"limit"` // -1 means unlimited
	Remaining int64     `json:"remaining"`
	Unlimited bool      `json:"unlimited"`
	ResetTime time.Time `json:"resetTime"`
}

func toQuotaStatusView(s domain.QuotaStatus) quotaStatusView {
	return quotaStatusView{
		Current:   s.Current,
		Limit:     s.Limit,
		Remaining: s.Remaining,
		Unlimited: s.Limit == domain.Unlimited,
		ResetTime: s.ResetTime,
	}
}

type rateWindowView struct {
	Used       int64     `json:"used"`
	Limit      int64     `json:"limit"`
	Percentage float64   `json:"percentage"`
	ResetTime  time.Time `json:"resetTime"`
}

func toRateWindowView(s domain.RateLimitStatus) rateWindowView {
	return rateWindowView{
		Used:       s.Current,
		Limit:      s.Limit,
		Percentage: s.Percentage(),
		ResetTime:  s.ResetTime,
	}
}

type rateUsageView struct {
	BillAnalysis     rateWindowView `json:"billAnalysis"`
	ReportGeneration rateWindowView `json:"reportGeneration"`
}

type usageView struct {
	Tier             domain.SubscriptionTier `json:"tier"`
	PeriodStart      time.Time               `json:"periodStart"`
	PeriodEnd        time.Time               `json:"periodEnd"`
	BillAnalysis     quotaStatusView         `json:"billAnalysis"`
	ReportGeneration quotaStatusView         `json:"reportGeneration"`
	ActiveUsers      int64                   `json:"activeUsers"`
	MaxUsers         int64                   `json:"maxUsers"`
}

func toUsageView(u *service.TenantUsage) usageView {
	return usageView{
		Tier:             u.Tier,
		PeriodStart:      u.Usage.PeriodStart,
		PeriodEnd:        u.Usage.PeriodEnd,
		BillAnalysis:     toQuotaStatusView(u.BillAnalysisStatus()),
		ReportGeneration: toQuotaStatusView(u.ReportGenerationStatus()),
		ActiveUsers:      u.ActiveUsers,
		MaxUsers:         u.Limits.MaxUsers,
	}
}
