package loader

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		n    int
		want Record
	}{
		{
			name: "exact",
			row:  []string{"a", "b"},
			n:    2,
			want: Record{{String: "a", Valid: true}, {String: "b", Valid: true}},
		},
		{
			name: "short",
			row:  []string{"a", "b"},
			n:    3,
			want: Record{{String: "a", Valid: true}, {String: "b", Valid: true}, {}},
		},
		{
			name: "long",
			row:  []string{"a", "b", "c"},
			n:    2,
			want: Record{{String: "a", Valid: true}, {String: "b", Valid: true}},
		},
		{
			name: "empty row",
			row:  nil,
			n:    2,
			want: Record{{}, {}},
		},
		{
			name: "empty string is not null",
			row:  []string{""},
			n:    1,
			want: Record{{String: "", Valid: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.row, tt.n)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, tt.n)
		})
	}
}

func TestRecord_Values(t *testing.T) {
	rec := Normalize([]string{"x"}, 2)

	values := rec.Values()
	assert.Equal(t, []any{sql.NullString{String: "x", Valid: true}, sql.NullString{}}, values)
}
