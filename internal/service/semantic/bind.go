package semantic

import (
	"context"
	"time"

	"semlake/internal/domain"
)

// placeholderDate is the fixed date emitted by the placeholder result row.
var placeholderDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// BoundQuery is a semantic query bound for table-function style execution:
// the output schema is fixed at bind time and rows are pulled with Produce.
type BoundQuery struct {
	CompiledSQL string
	Schema      []domain.ColumnSchema
	explain     bool
	produced    bool
}

// Bind parses, validates, and compiles a raw query document, settling the
// output schema up front. In explain mode the schema is a single
// compiled_sql column; otherwise it is a placeholder result row, since core
// compilation never executes the statement itself.
func (s *Service) Bind(ctx context.Context, raw []byte, explain bool) (*BoundQuery, error) {
	q, err := ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Validate(q); err != nil {
		return nil, domain.ErrValidation("Semantic query validation failed: %v", err)
	}
	sql, err := s.compile(q)
	if err != nil {
		return nil, err
	}

	bound := &BoundQuery{
		CompiledSQL: sql,
		explain:     explain,
	}
	if explain {
		bound.Schema = []domain.ColumnSchema{
			{Name: "compiled_sql", Type: "VARCHAR"},
		}
	} else {
		bound.Schema = []domain.ColumnSchema{
			{Name: "result", Type: "VARCHAR"},
			{Name: "count", Type: "BIGINT"},
			{Name: "date", Type: "DATE"},
		}
	}
	return bound, nil
}

// Produce returns the next output row, or ok=false once the single result
// row has been emitted. Binding compiles exactly once; repeated Produce
// calls after exhaustion keep returning ok=false.
func (b *BoundQuery) Produce() ([]any, bool) {
	if b.produced {
		return nil, false
	}
	b.produced = true

	if b.explain {
		return []any{b.CompiledSQL}, true
	}
	return []any{"Compiled SQL: " + b.CompiledSQL, int64(1), placeholderDate}, true
}
