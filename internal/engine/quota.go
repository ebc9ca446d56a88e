package engine

import (
	"github.com/formworks/formworks-server/internal/models"
)

// PlanLimits bounds how many users and forms a tenant may hold
type PlanLimits struct {
	MaxUsers int
	MaxForms int
}

// Effectively unbounded; enterprise tenants never hit it in practice
const unlimited = 999999

// planLimits is the fixed plan-to-limit table
var planLimits = map[models.PlanTier]PlanLimits{
	models.PlanFree:       {MaxUsers: 1, MaxForms: 3},
	models.PlanPro:        {MaxUsers: 10, MaxForms: 30},
	models.PlanAdvanced:   {MaxUsers: 100, MaxForms: 300},
	models.PlanEnterprise: {MaxUsers: unlimited, MaxForms: unlimited},
}

// LimitsFor returns the limits for a plan tier; unknown tiers get the
// free plan's limits
func LimitsFor(plan models.PlanTier) PlanLimits {
	if limits, ok := planLimits[plan]; ok {
		return limits
	}
	return planLimits[models.PlanFree]
}

// CheckUserLimit reports whether the tenant may create another user given
// its current active-user count. The limit is an exclusive ceiling:
// creating the Nth user requires fewer than N already present. Callers
// must invoke this before attempting creation and serialize the
// check-and-create pair per tenant; this check alone does not reserve
// capacity.
func CheckUserLimit(tenant *models.Tenant, currentActiveUsers int) error {
	limit := LimitsFor(tenant.Plan).MaxUsers
	if currentActiveUsers >= limit {
		return &QuotaExceededError{Resource: "users", Limit: limit, Count: currentActiveUsers}
	}
	return nil
}

// CheckFormLimit reports whether the tenant may create another form given
// its current active-form count. Same contract as CheckUserLimit.
func CheckFormLimit(tenant *models.Tenant, currentActiveForms int) error {
	limit := LimitsFor(tenant.Plan).MaxForms
	if currentActiveForms >= limit {
		return &QuotaExceededError{Resource: "forms", Limit: limit, Count: currentActiveForms}
	}
	return nil
}
