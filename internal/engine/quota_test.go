package engine

import (
	"errors"
	"testing"

	"github.com/formworks/formworks-server/internal/models"
)

func TestLimitsFor(t *testing.T) {
	cases := []struct {
		plan     models.PlanTier
		maxUsers int
		maxForms int
	}{
		{models.PlanFree, 1, 3},
		{models.PlanPro, 10, 30},
		{models.PlanAdvanced, 100, 300},
		{models.PlanEnterprise, 999999, 999999},
		{"unknown", 1, 3},
	}

	for _, tc := range cases {
		limits := LimitsFor(tc.plan)
		if limits.MaxUsers != tc.maxUsers || limits.MaxForms != tc.maxForms {
			t.Errorf("LimitsFor(%s) = %+v, want {%d %d}", tc.plan, limits, tc.maxUsers, tc.maxForms)
		}
	}
}

func TestCheckFormLimit(t *testing.T) {
	tenant := &models.Tenant{Plan: models.PlanFree}

	if err := CheckFormLimit(tenant, 2); err != nil {
		t.Fatalf("below limit: %v", err)
	}

	err := CheckFormLimit(tenant, 3)
	var quota *QuotaExceededError
	if !errors.As(err, &quota) {
		t.Fatalf("err = %v, want QuotaExceededError", err)
	}
	if quota.Limit != 3 || quota.Count != 3 {
		t.Errorf("quota = %+v, want limit 3 count 3", quota)
	}
}

func TestCheckUserLimit(t *testing.T) {
	tenant := &models.Tenant{Plan: models.PlanPro}

	if err := CheckUserLimit(tenant, 9); err != nil {
		t.Fatalf("below limit: %v", err)
	}

	var quota *QuotaExceededError
	if err := CheckUserLimit(tenant, 10); !errors.As(err, &quota) {
		t.Fatalf("err = %v, want QuotaExceededError", err)
	}
}
