package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseOf(t *testing.T) {
	tests := []struct {
		driver, dsn, want string
	}{
		{"mysql", "root:pass@tcp(localhost:3306)/shop?parseTime=true", "shop"},
		{"mysql", "root@/", ""},
		{"sqlite", "file:shop.db?_pragma=foreign_keys(1)", "shop.db"},
		{"sqlite3", ":memory:", ":memory:"},
		{"postgres", "postgres://u:p@localhost:5432/shop?sslmode=disable", "shop"},
		{"postgres", "host=localhost dbname=shop user=u", "shop"},
		{"other", "anything", "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.dsn, func(t *testing.T) {
			got, err := databaseOf(tt.driver, tt.dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToInt64(t *testing.T) {
	for _, v := range []any{int64(7), 7, int32(7), uint64(7), float64(7), "7", []byte("7")} {
		n, err := toInt64(v)
		require.NoError(t, err)
		assert.EqualValues(t, 7, n)
	}
	_, err := toInt64(nil)
	assert.Error(t, err)
}
