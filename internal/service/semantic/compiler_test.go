package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semlake/internal/domain"
)

func compileForTest(t *testing.T, q *domain.SemanticQuery) string {
	t.Helper()
	resolved, err := Resolve(q, ordersSchema())
	require.NoError(t, err)
	sql, err := Compile(resolved)
	require.NoError(t, err)
	return sql
}

func TestCompile_MeasureAndDimension(t *testing.T) {
	sql := compileForTest(t, &domain.SemanticQuery{
		Dataset:    "orders",
		Measures:   []string{"total"},
		Dimensions: []string{"region"},
		Limit:      -1,
	})
	assert.Equal(t, "SELECT SUM(amount) AS total, region AS region FROM orders GROUP BY region", sql)
}

func TestCompile_ProjectionOrder(t *testing.T) {
	// Measures first, then dimensions, then time dimensions, each in input
	// order.
	sql := compileForTest(t, &domain.SemanticQuery{
		Dataset:        "orders",
		Measures:       []string{"orders_count", "total"},
		Dimensions:     []string{"status", "region"},
		TimeDimensions: []domain.TimeDimension{{Dimension: "created_at"}},
		Limit:          -1,
	})
	assert.Equal(t,
		"SELECT COUNT(*) AS orders_count, SUM(amount) AS total, status AS status, region AS region, created_at AS created_at "+
			"FROM orders GROUP BY status, region, created_at", sql)
}

func TestCompile_UnknownProjectionNamesSkipped(t *testing.T) {
	// Resolution skips names with no schema match; compilation fails only
	// when nothing at all was projected.
	sql := compileForTest(t, &domain.SemanticQuery{
		Dataset:    "orders",
		Measures:   []string{"bogus", "total"},
		Dimensions: []string{"region"},
		Limit:      -1,
	})
	assert.Equal(t, "SELECT SUM(amount) AS total, region AS region FROM orders GROUP BY region", sql)
}

func TestCompile_EmptyProjection(t *testing.T) {
	resolved, err := Resolve(&domain.SemanticQuery{Dataset: "orders", Limit: -1}, ordersSchema())
	require.NoError(t, err)

	_, err = Compile(resolved)
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.EqualError(t, err, "no valid measures or dimensions specified")
}

func TestCompile_EqualsFilters(t *testing.T) {
	t.Run("single value", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:    "orders",
			Dimensions: []string{"region"},
			Filters:    []domain.Filter{{Dimension: "region", Operator: "equals", Values: []string{"US"}}},
			Limit:      -1,
		})
		assert.Equal(t, "SELECT region AS region FROM orders WHERE region = 'US'", sql)
	})

	t.Run("multiple values become IN", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:    "orders",
			Dimensions: []string{"region"},
			Filters:    []domain.Filter{{Dimension: "region", Operator: "equals", Values: []string{"US", "EU"}}},
			Limit:      -1,
		})
		assert.Equal(t, "SELECT region AS region FROM orders WHERE region IN ('US', 'EU')", sql)
	})

	t.Run("zero values produce no predicate", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:    "orders",
			Dimensions: []string{"region"},
			Filters:    []domain.Filter{{Dimension: "region", Operator: "equals"}},
			Limit:      -1,
		})
		assert.Equal(t, "SELECT region AS region FROM orders", sql)
	})
}

func TestCompile_NotEqualsFilters(t *testing.T) {
	t.Run("single value", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:    "orders",
			Dimensions: []string{"region"},
			Filters:    []domain.Filter{{Dimension: "region", Operator: "not_equals", Values: []string{"US"}}},
			Limit:      -1,
		})
		assert.Equal(t, "SELECT region AS region FROM orders WHERE region != 'US'", sql)
	})

	t.Run("multiple values become NOT IN", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:    "orders",
			Dimensions: []string{"region"},
			Filters:    []domain.Filter{{Dimension: "region", Operator: "not_equals", Values: []string{"US", "EU"}}},
			Limit:      -1,
		})
		assert.Equal(t, "SELECT region AS region FROM orders WHERE region NOT IN ('US', 'EU')", sql)
	})
}

func TestCompile_FilterValuesAreEscaped(t *testing.T) {
	sql := compileForTest(t, &domain.SemanticQuery{
		Dataset:    "orders",
		Dimensions: []string{"region"},
		Filters:    []domain.Filter{{Dimension: "region", Operator: "equals", Values: []string{"O'Brien"}}},
		Limit:      -1,
	})
	assert.Equal(t, "SELECT region AS region FROM orders WHERE region = 'O''Brien'", sql)
}

func TestResolve_FilterDimensionMustExist(t *testing.T) {
	_, err := Resolve(&domain.SemanticQuery{
		Dataset:    "orders",
		Dimensions: []string{"region"},
		Filters:    []domain.Filter{{Dimension: "region; DROP TABLE orders", Operator: "equals", Values: []string{"US"}}},
		Limit:      -1,
	}, ordersSchema())
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestResolve_DatasetNameMustBeIdentifier(t *testing.T) {
	_, err := Resolve(&domain.SemanticQuery{
		Dataset:    "orders; DROP TABLE orders",
		Dimensions: []string{"region"},
		Limit:      -1,
	}, ordersSchema())
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestResolve_OrderIDMustBeIdentifier(t *testing.T) {
	_, err := Resolve(&domain.SemanticQuery{
		Dataset:    "orders",
		Dimensions: []string{"region"},
		Order:      []domain.OrderSpec{{ID: "region'; --"}},
		Limit:      -1,
	}, ordersSchema())
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCompile_TimeDimension(t *testing.T) {
	t.Run("granularity and date range", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:  "orders",
			Measures: []string{"total"},
			TimeDimensions: []domain.TimeDimension{{
				Dimension:   "created_at",
				Granularity: "month",
				DateRange:   []string{"2024-01-01", "2024-12-31"},
			}},
			Limit: -1,
		})
		assert.Equal(t,
			"SELECT SUM(amount) AS total, DATE_TRUNC('month', created_at) AS created_at FROM orders "+
				"WHERE created_at >= '2024-01-01' AND created_at <= '2024-12-31' GROUP BY created_at", sql)
	})

	t.Run("no granularity leaves expression unwrapped", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:        "orders",
			TimeDimensions: []domain.TimeDimension{{Dimension: "created_at"}},
			Limit:          -1,
		})
		assert.Equal(t, "SELECT created_at AS created_at FROM orders", sql)
	})

	t.Run("unknown granularity leaves expression unwrapped", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:        "orders",
			TimeDimensions: []domain.TimeDimension{{Dimension: "created_at", Granularity: "week"}},
			Limit:          -1,
		})
		assert.Equal(t, "SELECT created_at AS created_at FROM orders", sql)
	})

	t.Run("date range with wrong length produces no predicate", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset: "orders",
			TimeDimensions: []domain.TimeDimension{{
				Dimension: "created_at",
				DateRange: []string{"2024-01-01"},
			}},
			Limit: -1,
		})
		assert.Equal(t, "SELECT created_at AS created_at FROM orders", sql)
	})
}

func TestCompile_GroupByGating(t *testing.T) {
	t.Run("no measures means no group by", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:    "orders",
			Dimensions: []string{"region"},
			Limit:      -1,
		})
		assert.Equal(t, "SELECT region AS region FROM orders", sql)
	})

	t.Run("measures without grouping keys means no group by", func(t *testing.T) {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:  "orders",
			Measures: []string{"total"},
			Limit:    -1,
		})
		assert.Equal(t, "SELECT SUM(amount) AS total FROM orders", sql)
	})
}

func TestCompile_OrderAndLimit(t *testing.T) {
	sql := compileForTest(t, &domain.SemanticQuery{
		Dataset:    "orders",
		Measures:   []string{"total"},
		Dimensions: []string{"region"},
		Order:      []domain.OrderSpec{{ID: "total", Desc: true}, {ID: "region"}},
		Limit:      10,
	})
	assert.Equal(t,
		"SELECT SUM(amount) AS total, region AS region FROM orders GROUP BY region ORDER BY total DESC, region LIMIT 10", sql)
}

func TestCompile_LimitGating(t *testing.T) {
	for _, limit := range []int64{0, -1} {
		sql := compileForTest(t, &domain.SemanticQuery{
			Dataset:    "orders",
			Dimensions: []string{"region"},
			Limit:      limit,
		})
		assert.NotContains(t, sql, "LIMIT")
	}
}

func TestCompile_Deterministic(t *testing.T) {
	q := &domain.SemanticQuery{
		Dataset:    "orders",
		Measures:   []string{"total"},
		Dimensions: []string{"region", "status"},
		Filters: []domain.Filter{
			{Dimension: "region", Operator: "equals", Values: []string{"US", "EU"}},
			{Dimension: "status", Operator: "not_equals", Values: []string{"cancelled"}},
		},
		TimeDimensions: []domain.TimeDimension{{
			Dimension:   "created_at",
			Granularity: "day",
			DateRange:   []string{"2024-01-01", "2024-01-31"},
		}},
		Order: []domain.OrderSpec{{ID: "total", Desc: true}},
		Limit: 100,
	}

	first := compileForTest(t, q)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, compileForTest(t, q))
	}
}
