// Package exercise builds concrete practice exercises for a lesson from the
// table its setup SQL defines.
package exercise

import (
	"fmt"
	"strings"

	"github.com/nsxbet/sql-lessons/pkg/catalog"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

// Canonical exercise ids, in the order they are emitted.
const (
	IDBasicSelect = "basic-select"
	IDAggregate   = "aggregate-1"
	IDFilterTop   = "filter-top"
)

// DefaultKeyColumn is used as the grouping key when no columns were inferred.
const DefaultKeyColumn = "id"

var numericMarkers = []string{"INT", "DOUBLE", "NUMERIC", "DECIMAL", "REAL", "FLOAT"}

// IsNumericType reports whether a declared column type looks numeric.
func IsNumericType(declared string) bool {
	upper := strings.ToUpper(declared)
	for _, marker := range numericMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// Plan is the column choice that drives the exercise templates.
type Plan struct {
	Table string `json:"table" yaml:"table"`
	Key   string `json:"key"   yaml:"key"`
	// Agg is empty when no aggregation column could be chosen.
	Agg        string `json:"agg,omitempty" yaml:"agg,omitempty"`
	AggNumeric bool   `json:"agg_numeric"   yaml:"agg_numeric"`
}

// PlanFor picks the key and aggregation columns for schema.
//
// The key is the first column. The aggregation column is the first column
// after the key with a numeric type. When only the key is numeric it
// aggregates itself, which limits the aggregate to COUNT. The second column is
// used only when no column is numeric.
func PlanFor(schema *catalog.TableSchema) Plan {
	p := Plan{Table: schema.Table, Key: DefaultKeyColumn}
	if len(schema.Columns) == 0 {
		return p
	}

	p.Key = schema.Columns[0]
	for _, col := range schema.Columns[1:] {
		if IsNumericType(schema.Type(col)) {
			p.Agg = col
			break
		}
	}
	switch {
	case p.Agg != "":
	case IsNumericType(schema.Type(p.Key)):
		p.Agg = p.Key
	case len(schema.Columns) > 1:
		p.Agg = schema.Columns[1]
	}
	p.AggNumeric = p.Agg != "" && IsNumericType(schema.Type(p.Agg))
	return p
}

// Synthesize returns the three canonical exercises for schema. The output
// depends only on schema.
func Synthesize(schema *catalog.TableSchema) []types.Exercise {
	return PlanFor(schema).Exercises()
}

// Exercises renders the plan into the canonical exercise list.
func (p Plan) Exercises() []types.Exercise {
	return []types.Exercise{p.basicSelect(), p.aggregate(), p.filterTop()}
}

func (p Plan) basicSelect() types.Exercise {
	return types.Exercise{
		ID:        IDBasicSelect,
		Prompt:    fmt.Sprintf("Show the first 5 rows from `%s`.", p.Table),
		AnswerSQL: fmt.Sprintf("SELECT * FROM %s LIMIT 5;", p.Table),
	}
}

func (p Plan) aggregate() types.Exercise {
	if p.Agg == "" || p.Agg == p.Key {
		return types.Exercise{
			ID:     IDAggregate,
			Prompt: fmt.Sprintf("Count rows grouped by `%s`.", p.Key),
			AnswerSQL: fmt.Sprintf("SELECT %s, COUNT(*) AS cnt FROM %s GROUP BY %s ORDER BY cnt DESC;",
				p.Key, p.Table, p.Key),
		}
	}
	return types.Exercise{
		ID:     IDAggregate,
		Prompt: fmt.Sprintf("Group by `%s` and compute COUNT and SUM(%s).", p.Key, p.Agg),
		AnswerSQL: fmt.Sprintf("SELECT %s, COUNT(*) AS cnt, SUM(%s) AS total_%s FROM %s GROUP BY %s ORDER BY cnt DESC;",
			p.Key, p.Agg, p.Agg, p.Table, p.Key),
	}
}

func (p Plan) filterTop() types.Exercise {
	if p.Agg == "" {
		return types.Exercise{
			ID:        IDFilterTop,
			Prompt:    "Select any 10 non-null rows.",
			AnswerSQL: fmt.Sprintf("SELECT * FROM %s WHERE %s IS NOT NULL LIMIT 10;", p.Table, p.Key),
		}
	}
	cond := ""
	if p.AggNumeric {
		cond = fmt.Sprintf(" AND %s > 0", p.Agg)
	}
	return types.Exercise{
		ID:        IDFilterTop,
		Prompt:    fmt.Sprintf("Select the top 10 rows where `%s` is positive (if numeric) or not null otherwise.", p.Agg),
		AnswerSQL: fmt.Sprintf("SELECT * FROM %s WHERE %s IS NOT NULL%s LIMIT 10;", p.Table, p.Agg, cond),
	}
}
