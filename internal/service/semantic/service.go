package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"semlake/internal/domain"
)

// Service provides registration and compilation of semantic queries. The
// in-memory registry is the compilation source of truth; the repository is
// a write-through store so registrations survive restarts.
type Service struct {
	registry  *Registry
	datasets  domain.DatasetRepository
	queryExec queryExecutor
	logger    *slog.Logger
}

// NewService creates a new semantic Service.
func NewService(registry *Registry, datasets domain.DatasetRepository, logger *slog.Logger) *Service {
	return &Service{
		registry: registry,
		datasets: datasets,
		logger:   logger,
	}
}

// Registry exposes the dataset registry backing this service.
func (s *Service) Registry() *Registry {
	return s.registry
}

// RegisterDataset parses a dataset definition, installs it in the registry,
// and persists the raw definition. Re-registering an existing name replaces
// its schema wholesale. Returns the confirmation message for the caller.
func (s *Service) RegisterDataset(ctx context.Context, name string, definition []byte) (string, error) {
	if name == "" {
		return "", domain.ErrValidation("dataset name must not be empty")
	}

	schema, err := ParseDefinition(definition)
	if err != nil {
		return "", err
	}

	s.registry.Register(name, schema)

	if s.datasets != nil {
		if err := s.datasets.Upsert(ctx, name, string(definition)); err != nil {
			return "", fmt.Errorf("persist dataset %q: %w", name, err)
		}
	}

	s.logger.Info("dataset registered",
		"dataset", name,
		"measures", len(schema.Measures),
		"dimensions", len(schema.Dimensions))

	return fmt.Sprintf("Dataset '%s' registered successfully", name), nil
}

// UnregisterDataset removes a dataset from the registry and the store.
func (s *Service) UnregisterDataset(ctx context.Context, name string) error {
	if _, ok := s.registry.Schema(name); !ok {
		return domain.ErrNotFound("dataset '%s' not found in registry", name)
	}
	s.registry.Unregister(name)
	if s.datasets != nil {
		if err := s.datasets.Delete(ctx, name); err != nil {
			return err
		}
	}
	s.logger.Info("dataset unregistered", "dataset", name)
	return nil
}

// GetDataset returns the persisted record for a registered dataset.
func (s *Service) GetDataset(ctx context.Context, name string) (*domain.DatasetRecord, error) {
	if s.datasets == nil {
		return nil, domain.ErrNotFound("dataset '%s' not found in registry", name)
	}
	return s.datasets.GetByName(ctx, name)
}

// ListDatasets returns the persisted records for all registered datasets.
func (s *Service) ListDatasets(ctx context.Context) ([]domain.DatasetRecord, error) {
	if s.datasets == nil {
		return nil, nil
	}
	return s.datasets.List(ctx)
}

// LoadPersisted replays every stored dataset definition into the registry.
// Called once at startup; definitions that no longer parse are skipped with
// a warning rather than blocking the rest.
func (s *Service) LoadPersisted(ctx context.Context) error {
	if s.datasets == nil {
		return nil
	}
	records, err := s.datasets.List(ctx)
	if err != nil {
		return fmt.Errorf("load persisted datasets: %w", err)
	}
	for _, rec := range records {
		schema, err := ParseDefinition([]byte(rec.Definition))
		if err != nil {
			s.logger.Warn("skipping persisted dataset with invalid definition",
				"dataset", rec.Name, "error", err)
			continue
		}
		s.registry.Register(rec.Name, schema)
	}
	s.logger.Info("registry restored", "datasets", len(records))
	return nil
}

// CompileQuery parses, validates, and compiles a raw semantic query
// document into a SQL statement.
func (s *Service) CompileQuery(raw []byte) (string, error) {
	q, err := ParseQuery(raw)
	if err != nil {
		return "", err
	}
	return s.compile(q)
}

func (s *Service) compile(q *domain.SemanticQuery) (string, error) {
	if err := s.registry.Validate(q); err != nil {
		return "", err
	}
	schema, ok := s.registry.Schema(q.Dataset)
	if !ok {
		return "", domain.ErrValidation("Dataset '%s' not found in registry", q.Dataset)
	}
	resolved, err := Resolve(q, schema)
	if err != nil {
		return "", err
	}
	return Compile(resolved)
}

// ExplainQuery compiles a raw query and reports the plan without running
// anything.
func (s *Service) ExplainQuery(raw []byte) (*QueryPlan, error) {
	q, err := ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	sql, err := s.compile(q)
	if err != nil {
		return nil, err
	}
	return &QueryPlan{
		Dataset:     q.Dataset,
		CompiledSQL: sql,
	}, nil
}

// QueryPlan describes a compiled semantic query.
type QueryPlan struct {
	Dataset     string `json:"dataset"`
	CompiledSQL string `json:"compiled_sql"`
}

// MarshalPlan renders a query plan as JSON for transport.
func (p *QueryPlan) MarshalPlan() ([]byte, error) {
	return json.Marshal(p)
}
