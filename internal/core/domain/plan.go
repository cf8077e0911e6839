package domain

import (
	"errors"
	"strings"
)

var ErrPlanNotFound = errors.New("plan not found")

// Plan is a subscription tier merchants can buy.
type Plan struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Price    float64  `json:"price" yaml:"price"`
	Currency string   `json:"currency" yaml:"currency"`
	Interval string   `json:"interval" yaml:"interval"`
	Features []string `json:"features,omitempty" yaml:"features"`
}

// Matches reports whether ref names this plan, either by internal id or by
// display name (case-insensitive, with or without a trailing "plan").
func (p Plan) Matches(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return false
	}
	if ref == strings.ToLower(p.ID) {
		return true
	}
	name := strings.ToLower(strings.TrimSpace(p.Name))
	return ref == name || ref+" plan" == name || ref == strings.TrimSuffix(name, " plan")
}
