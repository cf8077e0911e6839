// Package catalog loads the subscription plan catalog from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

//go:embed plans.yaml
var defaultPlans []byte

type planFile struct {
	Plans []domain.Plan `yaml:"plans"`
}

// Plans is an immutable, ordered plan catalog.
type Plans struct {
	plans []domain.Plan
}

// Default returns the built-in catalog.
func Default() (*Plans, error) {
	return Parse(defaultPlans)
}

// Load reads a catalog from path, or the built-in one when path is empty.
func Load(path string) (*Plans, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Ids are lower-cased; ids and
// names must be unique and prices non-negative.
func Parse(data []byte) (*Plans, error) {
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plans: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("parse plans: catalog is empty")
	}

	seen := make(map[string]bool, len(f.Plans)*2)
	for i := range f.Plans {
		p := &f.Plans[i]
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("parse plans: entry %d needs an id and a name", i)
		}
		if p.ID == domain.PlanScopeAll {
			return nil, fmt.Errorf("parse plans: %q is reserved", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("parse plans: %s has a negative price", p.ID)
		}
		name := strings.ToLower(p.Name)
		if seen["id:"+p.ID] || seen["name:"+name] {
			return nil, fmt.Errorf("parse plans: duplicate plan %s", p.ID)
		}
		seen["id:"+p.ID], seen["name:"+name] = true, true
	}
	return &Plans{plans: f.Plans}, nil
}

// List returns a copy of the catalog in file order.
func (c *Plans) List() []domain.Plan {
	out := make([]domain.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Find resolves a plan by id first, then by display name.
func (c *Plans) Find(ref string) (domain.Plan, error) {
	key := strings.ToLower(strings.TrimSpace(ref))
	for _, p := range c.plans {
		if p.ID == key {
			return p, nil
		}
	}
	for _, p := range c.plans {
		if p.Matches(ref) {
			return p, nil
		}
	}
	return domain.Plan{}, fmt.Errorf("%w: %s", domain.ErrPlanNotFound, ref)
}
