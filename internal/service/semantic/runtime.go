package semantic

import (
	"context"
	"fmt"

	"semlake/internal/engine"
)

type queryExecutor interface {
	Execute(ctx context.Context, sqlQuery string) (*engine.QueryResult, error)
}

// SetQueryExecutor wires the statement execution dependency. Compilation
// never needs it; only RunQuery does.
func (s *Service) SetQueryExecutor(exec queryExecutor) {
	s.queryExec = exec
}

// RunQuery compiles a raw semantic query and executes the resulting SQL.
func (s *Service) RunQuery(ctx context.Context, raw []byte) (*QueryRunResult, error) {
	if s.queryExec == nil {
		return nil, fmt.Errorf("semantic query executor is not configured")
	}

	plan, err := s.ExplainQuery(raw)
	if err != nil {
		return nil, err
	}

	result, err := s.queryExec.Execute(ctx, plan.CompiledSQL)
	if err != nil {
		return nil, err
	}

	return &QueryRunResult{Plan: *plan, Result: result}, nil
}

// QueryRunResult pairs a compiled plan with the rows its execution produced.
type QueryRunResult struct {
	Plan   QueryPlan           `json:"plan"`
	Result *engine.QueryResult `json:"result"`
}
