package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/payetonkawa/storefront/internal/services/storefront/module"
)

func TestDefaultModuleIDsAreUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, feature := range Default(module.Dependencies{}) {
		assert.False(t, seen[feature.ID()], "duplicate module %q", feature.ID())
		seen[feature.ID()] = true
	}
	assert.Equal(t, map[string]bool{
		"catalog": true, "cart": true, "account": true, "checkout": true, "orders": true,
	}, seen)
}
