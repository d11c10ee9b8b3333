package grid_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/grid"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := grid.NewMemoryCache()

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "orders:select:a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "orders:count:b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "customers:select:c", []byte("3"), 0))
	v, err = c.Get(ctx, "orders:select:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, c.DeletePrefix(ctx, "orders:"))
	assert.Equal(t, 1, c.Len())
	require.NoError(t, c.Delete(ctx, "customers:select:c"))
	assert.Zero(t, c.Len())

	require.NoError(t, c.Set(ctx, "short", []byte("x"), time.Nanosecond))
	time.Sleep(time.Millisecond)
	v, err = c.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Zero(t, c.Len())

	require.NoError(t, c.Set(ctx, "k", []byte("x"), time.Hour))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestCacheKey(t *testing.T) {
	k := grid.CacheKey{Table: "orders", Operation: "count", Query: "SELECT 1"}
	assert.Equal(t, "orders:count:SELECT 1", k.String())
}

func TestCachedReads(t *testing.T) {
	ctx := context.Background()
	c := grid.NewMemoryCache()
	g, mock := mocked(t, grid.WithCache(c, time.Minute))

	q := "SELECT `orders`.`id` AS `orders.id`, `orders`.`id` AS `id` FROM `orders`" + ordersJoin + " WHERE (`orders`.`status` = 'paid')"
	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"orders.id", "id"}).AddRow(int64(1), int64(1)))

	first, err := g.Table("orders").Filter("status = ?", "paid").FetchAll(ctx, "id")
	require.NoError(t, err)
	second, err := g.Table("orders").Filter("status = ?", "paid").FetchAll(ctx, "id")
	require.NoError(t, err)
	assert.EqualValues(t, first[0]["id"], second[0]["id"])
	assert.Equal(t, 1, g.QueryCount())
	assert.Equal(t, 1, c.Len())

	// Orders join customers, so writing customers drops cached orders.
	mock.ExpectExec("UPDATE `customers` SET `customers`.`name`='Ann' WHERE (`customers`.`id` = 1)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = g.Table("customers").Filter("id = ?", 1).Update(ctx, grid.Values{"customer": "Ann"})
	require.NoError(t, err)
	assert.Zero(t, c.Len())

	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"orders.id", "id"}).AddRow(int64(1), int64(1)))
	_, err = g.Table("orders").Filter("status = ?", "paid").FetchAll(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, 3, g.QueryCount())

	require.NoError(t, g.PurgeCache(ctx))
	assert.Zero(t, c.Len())
	require.NoError(t, mock.ExpectationsWereMet())
}
