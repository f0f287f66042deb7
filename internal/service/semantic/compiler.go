package semantic

import (
	"strconv"
	"strings"

	"semlake/internal/domain"
	"semlake/internal/sqlbuild"
)

// SelectItem is one projected column: a SQL expression and the alias it is
// exposed under.
type SelectItem struct {
	Expression string
	Alias      string
}

// TimeRange is an inclusive [Start, End] bound on a date column.
type TimeRange struct {
	Column string
	Start  string
	End    string
}

// ResolvedQuery is a semantic query with every name already resolved
// against a dataset schema. Compile works from this alone, so the SQL it
// emits can only reference entities the resolution step admitted.
type ResolvedQuery struct {
	Dataset    string
	Selects    []SelectItem
	Filters    []domain.Filter
	TimeRanges []TimeRange
	GroupBy    []string
	Order      []domain.OrderSpec
	Limit      int64
}

// Resolve binds a semantic query to a dataset schema. Projections are
// resolved in a fixed order (measures, then dimensions, then time
// dimensions), taking the first schema entry matching each requested name
// and skipping names with no match. Filter and time-range columns must
// resolve to schema dimensions, and order ids must be plain identifiers,
// since both are interpolated into the compiled statement.
func Resolve(q *domain.SemanticQuery, schema domain.DatasetSchema) (*ResolvedQuery, error) {
	if !sqlbuild.ValidIdentifier(q.Dataset) {
		return nil, domain.ErrValidation("dataset name '%s' is not a valid identifier", q.Dataset)
	}

	resolved := &ResolvedQuery{
		Dataset: q.Dataset,
		Order:   q.Order,
		Limit:   q.Limit,
	}

	for _, name := range q.Measures {
		if m, ok := schema.MeasureByName(name); ok {
			resolved.Selects = append(resolved.Selects, SelectItem{
				Expression: m.Expression,
				Alias:      m.Name,
			})
		}
	}

	for _, name := range q.Dimensions {
		if d, ok := schema.DimensionByName(name); ok {
			resolved.Selects = append(resolved.Selects, SelectItem{
				Expression: d.Expression,
				Alias:      d.Name,
			})
		}
	}

	for _, td := range q.TimeDimensions {
		d, ok := schema.DimensionByName(td.Dimension)
		if !ok {
			continue
		}
		expr := d.Expression
		switch td.Granularity {
		case domain.GranularityDay, domain.GranularityMonth, domain.GranularityYear:
			expr = "DATE_TRUNC('" + td.Granularity + "', " + expr + ")"
		}
		resolved.Selects = append(resolved.Selects, SelectItem{
			Expression: expr,
			Alias:      d.Name,
		})
	}

	for _, f := range q.Filters {
		d, ok := schema.DimensionByName(f.Dimension)
		if !ok {
			return nil, domain.ErrValidation("filter dimension '%s' not found in dataset '%s'", f.Dimension, q.Dataset)
		}
		resolved.Filters = append(resolved.Filters, domain.Filter{
			Dimension: d.Name,
			Operator:  f.Operator,
			Values:    f.Values,
		})
	}

	for _, td := range q.TimeDimensions {
		if len(td.DateRange) != 2 {
			continue
		}
		d, ok := schema.DimensionByName(td.Dimension)
		if !ok {
			continue
		}
		resolved.TimeRanges = append(resolved.TimeRanges, TimeRange{
			Column: d.Name,
			Start:  td.DateRange[0],
			End:    td.DateRange[1],
		})
	}

	// Grouping keys are the projected aliases, emitted only when the query
	// aggregates at least one measure.
	if len(q.Measures) > 0 {
		for _, name := range q.Dimensions {
			resolved.GroupBy = append(resolved.GroupBy, name)
		}
		for _, td := range q.TimeDimensions {
			resolved.GroupBy = append(resolved.GroupBy, td.Dimension)
		}
	}

	for _, o := range q.Order {
		if !sqlbuild.ValidIdentifier(o.ID) {
			return nil, domain.ErrValidation("order id '%s' is not a valid identifier", o.ID)
		}
	}

	return resolved, nil
}

// Compile renders a resolved query as a single SQL SELECT statement. The
// output is deterministic: clause order and the ordering within each clause
// follow the resolved query exactly. Filter and range values are emitted as
// escaped string literals.
func Compile(resolved *ResolvedQuery) (string, error) {
	if len(resolved.Selects) == 0 {
		return "", domain.ErrValidation("no valid measures or dimensions specified")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	for i, s := range resolved.Selects {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.Expression)
		b.WriteString(" AS ")
		b.WriteString(s.Alias)
	}
	b.WriteString(" FROM ")
	b.WriteString(resolved.Dataset)

	var conditions []string
	for _, f := range resolved.Filters {
		if cond, ok := filterCondition(f); ok {
			conditions = append(conditions, cond)
		}
	}
	for _, tr := range resolved.TimeRanges {
		conditions = append(conditions, tr.Column+" >= "+sqlbuild.QuoteLiteral(tr.Start))
		conditions = append(conditions, tr.Column+" <= "+sqlbuild.QuoteLiteral(tr.End))
	}
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	if len(resolved.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(resolved.GroupBy, ", "))
	}

	if len(resolved.Order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range resolved.Order {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(o.ID)
			if o.Desc {
				b.WriteString(" DESC")
			}
		}
	}

	if resolved.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(resolved.Limit, 10))
	}

	return b.String(), nil
}

// filterCondition renders one filter as a WHERE condition. A filter with no
// values contributes nothing.
func filterCondition(f domain.Filter) (string, bool) {
	switch f.Operator {
	case domain.FilterOpEquals:
		switch {
		case len(f.Values) == 1:
			return f.Dimension + " = " + sqlbuild.QuoteLiteral(f.Values[0]), true
		case len(f.Values) > 1:
			return f.Dimension + " IN (" + sqlbuild.QuoteLiterals(f.Values) + ")", true
		}
	case domain.FilterOpNotEquals:
		switch {
		case len(f.Values) == 1:
			return f.Dimension + " != " + sqlbuild.QuoteLiteral(f.Values[0]), true
		case len(f.Values) > 1:
			return f.Dimension + " NOT IN (" + sqlbuild.QuoteLiterals(f.Values) + ")", true
		}
	}
	return "", false
}
