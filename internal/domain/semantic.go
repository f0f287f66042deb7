package domain

const (
	// Filter operators understood by the compiler.
	FilterOpEquals    = "equals"
	FilterOpNotEquals = "not_equals"

	// Truncation granularities for time dimensions. Any other value leaves
	// the dimension expression unwrapped.
	GranularityDay   = "day"
	GranularityMonth = "month"
	GranularityYear  = "year"

	// Dimension value types. The compiler keeps these as bookkeeping only.
	DimensionTypeText = "TEXT"
	DimensionTypeDate = "DATE"

	// DefaultAggregation is assumed when a measure definition omits "type".
	DefaultAggregation = "sum"
)

// Measure is an aggregated quantity exposed by a dataset. Expression is the
// SQL computed-value expression (e.g. SUM(revenue)); Aggregation is
// descriptive metadata and does not influence compilation.
type Measure struct {
	Name        string
	Aggregation string
	Expression  string
}

// Dimension is a non-aggregated attribute usable for grouping and filtering.
type Dimension struct {
	Name       string
	Expression string
	ValueType  string
}

// Filter restricts a dimension to (or away from) a set of literal values.
// A filter with no values contributes no predicate.
type Filter struct {
	Dimension string
	Operator  string
	Values    []string
}

// TimeDimension selects a date-typed dimension, optionally truncated to a
// granularity and bounded by an inclusive date range. A DateRange of any
// length other than 2 produces no range condition.
type TimeDimension struct {
	Dimension   string
	Granularity string
	DateRange   []string
}

// OrderSpec orders the result by a projected column name.
type OrderSpec struct {
	ID   string
	Desc bool
}

// SemanticQuery is the structured, pre-SQL request describing desired
// measures, dimensions, filters, ordering, and limit. Limit <= 0 means
// unlimited. TimeZone is accepted but not currently applied.
type SemanticQuery struct {
	Dataset        string
	Measures       []string
	Dimensions     []string
	Filters        []Filter
	TimeDimensions []TimeDimension
	Order          []OrderSpec
	Limit          int64
	TimeZone       string
}

// DatasetSchema is the catalog entry for one dataset: the ordered measures
// and dimensions a semantic query may reference. Time dimensions registered
// for a dataset appear in Dimensions with ValueType DATE.
type DatasetSchema struct {
	Measures   []Measure
	Dimensions []Dimension
}

// MeasureByName returns the first measure with the given name.
func (s DatasetSchema) MeasureByName(name string) (Measure, bool) {
	for _, m := range s.Measures {
		if m.Name == name {
			return m, true
		}
	}
	return Measure{}, false
}

// DimensionByName returns the first dimension with the given name.
func (s DatasetSchema) DimensionByName(name string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}
