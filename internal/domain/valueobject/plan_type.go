package valueobject

import (
	"errors"
)

var (
	ErrInvalidPlanType = errors.New("invalid plan type")
)

// PlanType is the partner plan tier a subscription is billed on
type PlanType string

const (
	PlanEsencia PlanType = "esencia"
	PlanConecta PlanType = "conecta"
	PlanInspira PlanType = "inspira"
)

// PlanTypes lists every tier in display order
var PlanTypes = []PlanType{PlanEsencia, PlanConecta, PlanInspira}

// NewPlanType creates a new PlanType value object
func NewPlanType(planType string) (PlanType, error) {
	pt := PlanType(planType)
	if !pt.IsValid() {
		return "", ErrInvalidPlanType
	}
	return pt, nil
}

// String returns the string representation of the plan type
func (p PlanType) String() string {
	return string(p)
}

// IsValid returns true if the plan type is valid
func (p PlanType) IsValid() bool {
	switch p {
	case PlanEsencia, PlanConecta, PlanInspira:
		return true
	default:
		return false
	}
}
