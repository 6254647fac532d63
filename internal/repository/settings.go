package repository

import (
	"context"
	"encoding/json"

	"github.com/tenagalabs/jejak/internal/domain"
)

// SystemSettings is the single persisted configuration record holding
// the rate-limit and quota configuration as JSON documents.
type SystemSettings struct {
	RateLimits domain.RateLimitConfig
	Quotas     domain.QuotaConfig
}

const getSystemSettings = `
SELECT rate_limits, quotas FROM system_settings WHERE id = 1
`

// GetSystemSettings reads the configuration record. Returns
// sql.ErrNoRows when it has never been written.
func (q *Queries) GetSystemSettings(ctx context.Context) (*SystemSettings, error) {
	var rateJSON, quotaJSON []byte
	if err := q.db.QueryRowContext(ctx, getSystemSettings).Scan(&rateJSON, &quotaJSON); err != nil {
		return nil, err
	}

	var s SystemSettings
	if err := json.Unmarshal(rateJSON, &s.RateLimits); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(quotaJSON, &s.Quotas); err != nil {
		return nil, err
	}
	return &s, nil
}

const upsertSystemSettings = `
INSERT INTO system_settings (id, rate_limits, quotas, updated_at)
VALUES (1, $1, $2, now())
ON CONFLICT (id) DO UPDATE SET rate_limits = $1, quotas = $2, updated_at = now()
`

// UpsertSystemSettings writes the configuration record.
func (q *Queries) UpsertSystemSettings(ctx context.Context, s SystemSettings) error {
	rateJSON, err := json.Marshal(s.RateLimits)
	if err != nil {
		return err
	}
	quotaJSON, err := json.Marshal(s.Quotas)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, upsertSystemSettings, rateJSON, quotaJSON)
	return err
}
