package semantic

import (
	"encoding/json"

	"semlake/internal/domain"
)

// Wire shapes for the JSON query document. Required nested fields are
// pointers so a missing field can be told apart from a zero value.
type queryDoc struct {
	Dataset        string             `json:"dataset"`
	Measures       []string           `json:"measures"`
	Dimensions     []string           `json:"dimensions"`
	Filters        []filterDoc        `json:"filters"`
	TimeDimensions []timeDimensionDoc `json:"time_dimensions"`
	Order          []orderDoc         `json:"order"`
	Limit          *int64             `json:"limit"`
	TimeZone       string             `json:"time_zone"`
}

type filterDoc struct {
	Dimension *string  `json:"dimension"`
	Operator  *string  `json:"operator"`
	Values    []string `json:"values"`
}

type timeDimensionDoc struct {
	Dimension   *string  `json:"dimension"`
	Granularity string   `json:"granularity"`
	DateRange   []string `json:"date_range"`
}

type orderDoc struct {
	ID   *string `json:"id"`
	Desc bool    `json:"desc"`
}

// ParseQuery deserializes a raw JSON document into a SemanticQuery, applying
// defaults: absent collections become empty, limit defaults to -1 (no
// limit), desc defaults to false. It does not resolve names against any
// schema — that is the validator's job. Malformed documents, including
// entries missing required nested fields, fail with a validation error
// carrying the underlying cause.
func ParseQuery(raw []byte) (*domain.SemanticQuery, error) {
	var doc queryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.ErrValidation("invalid JSON in semantic query: %v", err)
	}

	q := &domain.SemanticQuery{
		Dataset:    doc.Dataset,
		Measures:   doc.Measures,
		Dimensions: doc.Dimensions,
		Limit:      -1,
		TimeZone:   doc.TimeZone,
	}
	if doc.Limit != nil {
		q.Limit = *doc.Limit
	}

	for i, f := range doc.Filters {
		if f.Dimension == nil {
			return nil, domain.ErrValidation("invalid JSON in semantic query: filters[%d] is missing 'dimension'", i)
		}
		if f.Operator == nil {
			return nil, domain.ErrValidation("invalid JSON in semantic query: filters[%d] is missing 'operator'", i)
		}
		q.Filters = append(q.Filters, domain.Filter{
			Dimension: *f.Dimension,
			Operator:  *f.Operator,
			Values:    f.Values,
		})
	}

	for i, td := range doc.TimeDimensions {
		if td.Dimension == nil {
			return nil, domain.ErrValidation("invalid JSON in semantic query: time_dimensions[%d] is missing 'dimension'", i)
		}
		q.TimeDimensions = append(q.TimeDimensions, domain.TimeDimension{
			Dimension:   *td.Dimension,
			Granularity: td.Granularity,
			DateRange:   td.DateRange,
		})
	}

	for i, o := range doc.Order {
		if o.ID == nil {
			return nil, domain.ErrValidation("invalid JSON in semantic query: order[%d] is missing 'id'", i)
		}
		q.Order = append(q.Order, domain.OrderSpec{ID: *o.ID, Desc: o.Desc})
	}

	return q, nil
}

// Wire shapes for the JSON dataset definition document.
type definitionDoc struct {
	Measures       []measureDoc   `json:"measures"`
	Dimensions     []dimensionDoc `json:"dimensions"`
	TimeDimensions []dimensionDoc `json:"time_dimensions"`
}

type measureDoc struct {
	Name *string `json:"name"`
	Type string  `json:"type"`
	SQL  *string `json:"sql"`
}

type dimensionDoc struct {
	Name *string `json:"name"`
	SQL  *string `json:"sql"`
}

// ParseDefinition deserializes a raw dataset definition document into a
// DatasetSchema. Measures default their aggregation type to "sum";
// dimensions are text-typed and time dimensions date-typed, appended after
// the regular dimensions. No further consistency checks are performed —
// duplicate names or empty expressions are installed as-is.
func ParseDefinition(raw []byte) (domain.DatasetSchema, error) {
	var doc definitionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.DatasetSchema{}, domain.ErrValidation("invalid dataset definition: %v", err)
	}

	var schema domain.DatasetSchema
	for i, m := range doc.Measures {
		if m.Name == nil {
			return domain.DatasetSchema{}, domain.ErrValidation("invalid dataset definition: measures[%d] is missing 'name'", i)
		}
		if m.SQL == nil {
			return domain.DatasetSchema{}, domain.ErrValidation("invalid dataset definition: measures[%d] is missing 'sql'", i)
		}
		aggregation := m.Type
		if aggregation == "" {
			aggregation = domain.DefaultAggregation
		}
		schema.Measures = append(schema.Measures, domain.Measure{
			Name:        *m.Name,
			Aggregation: aggregation,
			Expression:  *m.SQL,
		})
	}

	for i, d := range doc.Dimensions {
		if d.Name == nil {
			return domain.DatasetSchema{}, domain.ErrValidation("invalid dataset definition: dimensions[%d] is missing 'name'", i)
		}
		if d.SQL == nil {
			return domain.DatasetSchema{}, domain.ErrValidation("invalid dataset definition: dimensions[%d] is missing 'sql'", i)
		}
		schema.Dimensions = append(schema.Dimensions, domain.Dimension{
			Name:       *d.Name,
			Expression: *d.SQL,
			ValueType:  domain.DimensionTypeText,
		})
	}

	for i, d := range doc.TimeDimensions {
		if d.Name == nil {
			return domain.DatasetSchema{}, domain.ErrValidation("invalid dataset definition: time_dimensions[%d] is missing 'name'", i)
		}
		if d.SQL == nil {
			return domain.DatasetSchema{}, domain.ErrValidation("invalid dataset definition: time_dimensions[%d] is missing 'sql'", i)
		}
		schema.Dimensions = append(schema.Dimensions, domain.Dimension{
			Name:       *d.Name,
			Expression: *d.SQL,
			ValueType:  domain.DimensionTypeDate,
		})
	}

	return schema, nil
}
