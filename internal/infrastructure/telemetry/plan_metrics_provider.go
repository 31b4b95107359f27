package telemetry

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormPlanDistributionProvider implements PlanDistributionProvider by
// querying the organizations table directly. It lives in the telemetry
// layer to avoid coupling domain repositories to metrics collection.
type GormPlanDistributionProvider struct {
	db *gorm.DB
}

// NewGormPlanDistributionProvider creates a plan distribution provider.
func NewGormPlanDistributionProvider(db *gorm.DB) *GormPlanDistributionProvider {
	return &GormPlanDistributionProvider{db: db}
}

// GetOrgCountByPlan returns the number of organizations per plan code.
func (p *GormPlanDistributionProvider) GetOrgCountByPlan(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		PlanCode string
		Count    int64
	}

	err := p.db.WithContext(ctx).
		Table("organizations").
		Select("plan_code, COUNT(*) as count").
		Group("plan_code").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count organizations by plan: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PlanCode] = row.Count
	}
	return counts, nil
}
