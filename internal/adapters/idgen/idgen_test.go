package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
)

func TestUUIDGenerator_Next(t *testing.T) {
	id, err := uuid.Parse(New().Next())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
}

func TestUUIDGenerator_UniqueTradeRefs(t *testing.T) {
	gen := New()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := domain.NewTradeRef(gen.Next())
		assert.Regexp(t, `^TRADE_[0-9A-F]{12}$`, ref)
		assert.False(t, seen[ref], "duplicate ref %s", ref)
		seen[ref] = true
	}
}
