package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

func TestDefault(t *testing.T) {
	plans, err := Default()
	require.NoError(t, err)

	list := plans.List()
	require.Len(t, list, 3)
	assert.Equal(t, "basic", list[0].ID)
	assert.Equal(t, "Pro Plan", list[1].Name)
	assert.Equal(t, 599.0, list[1].Price)
}

func TestFind(t *testing.T) {
	plans, err := Default()
	require.NoError(t, err)

	for _, ref := range []string{"pro", "PRO", "Pro Plan", "pro plan", " Pro "} {
		p, err := plans.Find(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "pro", p.ID, ref)
	}

	_, err = plans.Find("gold")
	assert.True(t, errors.Is(err, domain.ErrPlanNotFound))
}

func TestList_ReturnsCopy(t *testing.T) {
	plans, err := Default()
	require.NoError(t, err)

	list := plans.List()
	list[0].Price = 0
	assert.Equal(t, 299.0, plans.List()[0].Price)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":          "plans: []",
		"missing name":   "plans:\n  - id: a\n    price: 1",
		"reserved id":    "plans:\n  - id: all\n    name: All\n    price: 1",
		"negative price": "plans:\n  - id: a\n    name: A\n    price: -1",
		"duplicate id":   "plans:\n  - id: a\n    name: A\n  - id: A\n    name: B",
		"duplicate name": "plans:\n  - id: a\n    name: Same\n  - id: b\n    name: same",
		"not yaml":       "plans: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: Solo\n    name: Solo\n    price: 99\n    currency: USD\n"), 0o600))

	plans, err := Load(path)
	require.NoError(t, err)
	p, err := plans.Find("solo")
	require.NoError(t, err)
	assert.Equal(t, 99.0, p.Price)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
