package inserter_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/pgbulk/inserter"
)

func TestPartition_CoversRowSetInOrder(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for size := 1; size <= 12; size++ {
			windows := inserter.Partition(total, size)

			assert.Len(t, windows, (total+size-1)/size, "total=%d size=%d", total, size)

			next, sum := 0, 0
			for i, w := range windows {
				assert.Equal(t, i, w.Index)
				assert.Equal(t, next, w.Start, "windows must be contiguous")
				assert.LessOrEqual(t, w.Len(), size)
				assert.Positive(t, w.Len())
				next = w.End
				sum += w.Len()
			}
			assert.Equal(t, total, sum)
		}
	}
}

func TestPartition_Degenerate(t *testing.T) {
	assert.Nil(t, inserter.Partition(0, 10))
	assert.Nil(t, inserter.Partition(10, 0))
	assert.Equal(t, []inserter.Window{{Index: 0, Start: 0, End: 3}}, inserter.Partition(3, 5))
	assert.Equal(t, []inserter.Window{
		{Index: 0, Start: 0, End: 2},
		{Index: 1, Start: 2, End: 3},
	}, inserter.Partition(3, 2))
}

func TestPartition_HugeBatchSize(t *testing.T) {
	var windows []inserter.Window
	require.NotPanics(t, func() { windows = inserter.Partition(3, math.MaxInt) })
	assert.Equal(t, []inserter.Window{{Index: 0, Start: 0, End: 3}}, windows)
}

func TestBuildInsert(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		columns []string
		want    string
	}{
		{
			name:    "plain",
			table:   "users",
			columns: []string{"id", "name"},
			want:    `INSERT INTO "users" ("id","name") VALUES ($1,$2)`,
		},
		{
			name:    "schema qualified",
			table:   "public.users",
			columns: []string{"id"},
			want:    `INSERT INTO "public"."users" ("id") VALUES ($1)`,
		},
		{
			name:    "every dot separates a part",
			table:   "a.b.c",
			columns: []string{"id"},
			want:    `INSERT INTO "a"."b"."c" ("id") VALUES ($1)`,
		},
		{
			name:    "quotes are escaped",
			table:   `we"ird`,
			columns: []string{`a"); DROP TABLE x; --`, "Mixed Case"},
			want:    `INSERT INTO "we""ird" ("a""); DROP TABLE x; --","Mixed Case") VALUES ($1,$2)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inserter.BuildInsert(tt.table, tt.columns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildInsert_RejectsInvalidInput(t *testing.T) {
	_, err := inserter.BuildInsert("", []string{"id"})
	assert.ErrorIs(t, err, inserter.ErrEmptyTable)

	_, err = inserter.BuildInsert("t", nil)
	assert.ErrorIs(t, err, inserter.ErrNoColumns)
}

func TestProgress_Percent(t *testing.T) {
	assert.Equal(t, 0, inserter.Progress{}.Percent())
	assert.Equal(t, 33, inserter.Progress{Committed: 1, Total: 3}.Percent())
	assert.Equal(t, 100, inserter.Progress{Committed: 5000, Total: 5000}.Percent())
}
