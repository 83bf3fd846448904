package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

func TestBuildFilterClause(t *testing.T) {
	t.Run("empty filter", func(t *testing.T) {
		where, args := buildFilterClause(patent.Filter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("single condition", func(t *testing.T) {
		where, args := buildFilterClause(patent.Filter{Decision: "ACCEPTED"})
		assert.Equal(t, " WHERE decision = $1", where)
		assert.Equal(t, []any{"ACCEPTED"}, args)
	})

	t.Run("all conditions keep positional order", func(t *testing.T) {
		from := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC)
		where, args := buildFilterClause(patent.Filter{
			Decision:     "REJECTED",
			MainCPCLabel: "H04L45/24",
			FiledFrom:    from,
			FiledTo:      to,
			TitleQuery:   "routing",
		})

		assert.Contains(t, where, "decision = $1")
		assert.Contains(t, where, "classification ->> 'main_cpc_label' = $2")
		assert.Contains(t, where, "filing_date >= $3")
		assert.Contains(t, where, "filing_date <= $4")
		assert.Contains(t, where, "plainto_tsquery('english', $5)")
		require.Len(t, args, 5)
		assert.Equal(t, "REJECTED", args[0])
		assert.Equal(t, from, args[2])
	})
}

func TestPageNormalize(t *testing.T) {
	p := common.Page{Offset: -5, Limit: 0}.Normalize()
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, 50, p.Limit)

	p = common.Page{Offset: 10, Limit: 9999}.Normalize()
	assert.Equal(t, 10, p.Offset)
	assert.Equal(t, 50, p.Limit)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("US123"))
	assert.Equal(t, "US123", *nullable("US123"))
}
