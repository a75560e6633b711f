package httpapi

import (
	"context"

	"potager/pkg/domain"
)

type blockGarden struct{}

func (blockGarden) Name() string { return "no_resize" }

func (blockGarden) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	for _, c := range changes {
		if c.Entity == domain.EntityGarden {
			return domain.Result{Violations: []domain.Violation{{
				Rule: "no_resize", Severity: domain.SeverityBlock, Message: "garden is locked", Entity: domain.EntityGarden,
			}}}, nil
		}
	}
	return domain.Result{}, nil
}
