package exercise

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-lessons/pkg/catalog"
)

func TestPlanFor(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want Plan
	}{
		{
			name: "numeric column after key",
			sql:  "CREATE TABLE orders (id INT, amount DECIMAL(10,2), status VARCHAR)",
			want: Plan{Table: "orders", Key: "id", Agg: "amount", AggNumeric: true},
		},
		{
			name: "first numeric column wins",
			sql:  "CREATE TABLE sales (region TEXT, qty BIGINT, price DOUBLE)",
			want: Plan{Table: "sales", Key: "region", Agg: "qty", AggNumeric: true},
		},
		{
			name: "second column when nothing is numeric",
			sql:  "CREATE TABLE people (name TEXT, city TEXT)",
			want: Plan{Table: "people", Key: "name", Agg: "city"},
		},
		{
			name: "numeric key alone",
			sql:  "CREATE TABLE n (v INT)",
			want: Plan{Table: "n", Key: "v", Agg: "v", AggNumeric: true},
		},
		{
			name: "only the key is numeric",
			sql:  "CREATE TABLE users (id INT, name VARCHAR)",
			want: Plan{Table: "users", Key: "id", Agg: "id", AggNumeric: true},
		},
		{
			name: "single non-numeric column",
			sql:  "CREATE TABLE tags (label TEXT)",
			want: Plan{Table: "tags", Key: "label"},
		},
		{
			name: "insert only",
			sql:  "INSERT INTO events VALUES (1)",
			want: Plan{Table: "events", Key: "id"},
		},
		{
			name: "lowercase numeric type",
			sql:  "CREATE TABLE m (k varchar, v float)",
			want: Plan{Table: "m", Key: "k", Agg: "v", AggNumeric: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanFor(catalog.Infer(tt.sql))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("PlanFor() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSynthesize_SumOverAmount(t *testing.T) {
	exercises := Synthesize(catalog.Infer("CREATE TABLE orders (id INT, amount DECIMAL(10,2), status VARCHAR)"))
	require.Len(t, exercises, 3)

	assert.Equal(t, []string{IDBasicSelect, IDAggregate, IDFilterTop},
		[]string{exercises[0].ID, exercises[1].ID, exercises[2].ID})

	assert.Equal(t, "Show the first 5 rows from `orders`.", exercises[0].Prompt)
	assert.Equal(t, "SELECT * FROM orders LIMIT 5;", exercises[0].AnswerSQL)

	assert.Contains(t, exercises[1].AnswerSQL, "SUM(amount)")
	assert.Contains(t, exercises[1].AnswerSQL, "GROUP BY id")
	assert.Equal(t,
		"SELECT id, COUNT(*) AS cnt, SUM(amount) AS total_amount FROM orders GROUP BY id ORDER BY cnt DESC;",
		exercises[1].AnswerSQL)
	assert.Equal(t, "Group by `id` and compute COUNT and SUM(amount).", exercises[1].Prompt)

	assert.Equal(t, "SELECT * FROM orders WHERE amount IS NOT NULL AND amount > 0 LIMIT 10;", exercises[2].AnswerSQL)
}

func TestSynthesize_NonNumericAggregate(t *testing.T) {
	exercises := Synthesize(catalog.Infer("CREATE TABLE people (name TEXT, city TEXT)"))

	assert.Contains(t, exercises[1].AnswerSQL, "SUM(city)")
	assert.Equal(t, "SELECT * FROM people WHERE city IS NOT NULL LIMIT 10;", exercises[2].AnswerSQL)
}

func TestSynthesize_OnlyKeyNumeric(t *testing.T) {
	exercises := Synthesize(catalog.Infer("CREATE TABLE users (id INT, name VARCHAR)"))
	require.Len(t, exercises, 3)

	assert.NotContains(t, exercises[1].AnswerSQL, "SUM(")
	assert.Equal(t, "SELECT id, COUNT(*) AS cnt FROM users GROUP BY id ORDER BY cnt DESC;", exercises[1].AnswerSQL)
	assert.Equal(t, "SELECT * FROM users WHERE id IS NOT NULL AND id > 0 LIMIT 10;", exercises[2].AnswerSQL)

	single := Synthesize(catalog.Infer("CREATE TABLE c (n INTEGER)"))
	assert.Equal(t, "SELECT n, COUNT(*) AS cnt FROM c GROUP BY n ORDER BY cnt DESC;", single[1].AnswerSQL)
	assert.Equal(t, "SELECT * FROM c WHERE n IS NOT NULL AND n > 0 LIMIT 10;", single[2].AnswerSQL)
}

func TestSynthesize_NoColumns(t *testing.T) {
	exercises := Synthesize(catalog.Infer("INSERT INTO events VALUES (1)"))
	require.Len(t, exercises, 3)

	assert.Equal(t, "SELECT id, COUNT(*) AS cnt FROM events GROUP BY id ORDER BY cnt DESC;", exercises[1].AnswerSQL)
	assert.Equal(t, "Select any 10 non-null rows.", exercises[2].Prompt)
	assert.Equal(t, "SELECT * FROM events WHERE id IS NOT NULL LIMIT 10;", exercises[2].AnswerSQL)
}

func TestSynthesize_Deterministic(t *testing.T) {
	sql := "CREATE TABLE sales (region TEXT, qty BIGINT, price DOUBLE)"
	first := Synthesize(catalog.Infer(sql))
	second := Synthesize(catalog.Infer(sql))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Synthesize() not deterministic (-first +second):\n%s", diff)
	}
}

func TestIsNumericType(t *testing.T) {
	for _, typ := range []string{"INT", "bigint", "DOUBLE PRECISION", "numeric(5)", "Decimal(10,2)", "REAL", "float8"} {
		assert.True(t, IsNumericType(typ), typ)
	}
	for _, typ := range []string{"", "TEXT", "VARCHAR(10)", "DATE", "BOOLEAN"} {
		assert.False(t, IsNumericType(typ), typ)
	}
}
