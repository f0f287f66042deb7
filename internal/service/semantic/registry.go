// Package semantic implements the dataset registry and the semantic query
// compiler: parse a JSON query document, validate it against the registered
// catalog, and lower it to a single SQL statement.
package semantic

import (
	"sort"
	"sync"

	"semlake/internal/domain"
)

// Registry is the in-memory catalog mapping dataset names to their allowed
// measures and dimensions. It is owned by the Service and passed explicitly;
// there is no process-wide singleton. A RWMutex guards the map so concurrent
// registrations never produce torn reads: Register swaps the whole schema
// value under the write lock.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]domain.DatasetSchema
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]domain.DatasetSchema)}
}

// Register inserts or replaces the schema for name. The prior schema, if
// any, is replaced wholesale — there is no merge. The schema's internal
// consistency is not checked.
func (r *Registry) Register(name string, schema domain.DatasetSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[name] = schema
}

// Unregister removes the schema for name, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.datasets, name)
}

// Schema returns the registered schema for name. The returned value must be
// treated as immutable.
func (r *Registry) Schema(name string) (domain.DatasetSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.datasets[name]
	return schema, ok
}

// Measures returns the registered measures for name.
func (r *Registry) Measures(name string) ([]domain.Measure, bool) {
	schema, ok := r.Schema(name)
	return schema.Measures, ok
}

// Dimensions returns the registered dimensions for name.
func (r *Registry) Dimensions(name string) ([]domain.Dimension, bool) {
	schema, ok := r.Schema(name)
	return schema.Dimensions, ok
}

// Datasets returns the registered dataset names in sorted order.
func (r *Registry) Datasets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.datasets))
	for name := range r.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a parsed query against the registry and returns the first
// violation found, in this fixed order: dataset existence, each requested
// measure, each requested dimension, each time dimension's underlying
// dimension. Filters with operators the compiler does not understand are
// rejected last, so a dropped predicate can never silently change result
// rows.
func (r *Registry) Validate(q *domain.SemanticQuery) error {
	schema, ok := r.Schema(q.Dataset)
	if !ok {
		return domain.ErrNotFound("Dataset '%s' not found in registry", q.Dataset)
	}

	for _, name := range q.Measures {
		if _, ok := schema.MeasureByName(name); !ok {
			return domain.ErrNotFound("Measure '%s' not found in dataset '%s'", name, q.Dataset)
		}
	}

	for _, name := range q.Dimensions {
		if _, ok := schema.DimensionByName(name); !ok {
			return domain.ErrNotFound("Dimension '%s' not found in dataset '%s'", name, q.Dataset)
		}
	}

	for _, td := range q.TimeDimensions {
		if _, ok := schema.DimensionByName(td.Dimension); !ok {
			return domain.ErrNotFound("Time dimension '%s' not found in dataset '%s'", td.Dimension, q.Dataset)
		}
	}

	for _, f := range q.Filters {
		if f.Operator != domain.FilterOpEquals && f.Operator != domain.FilterOpNotEquals {
			return domain.ErrValidation("filter operator '%s' is not supported", f.Operator)
		}
	}

	return nil
}
