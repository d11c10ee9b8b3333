package grid

import (
	"context"
	"fmt"
	"strconv"

	"github.com/syssam/grid/dialect"
	"github.com/syssam/grid/dialect/sql"
)

// CompileSelect returns the SELECT statement of the query without running
// it. fields are field names or aliases, possibly comma-joined or wrapped
// in an aggregate such as "count(id)"; no fields, or none that resolve,
// select every field of the table and its joined associations.
func (g *Grid) CompileSelect(fields ...string) (string, error) {
	defer g.st.reset()
	return g.buildSelect(fields)
}

// CompileCount returns the statement Count runs.
func (g *Grid) CompileCount() (string, error) {
	defer g.st.reset()
	return g.buildCount()
}

// CompileUpdate returns the statement Update runs.
func (g *Grid) CompileUpdate(values Values) (string, error) {
	defer g.st.reset()
	return g.buildUpdate(values)
}

// CompileDelete returns the statement Delete runs.
func (g *Grid) CompileDelete() (string, error) {
	defer g.st.reset()
	return g.buildDelete()
}

// CompileInsert returns the statement Insert runs. Default values are
// generated as they would be by Insert.
func (g *Grid) CompileInsert(values Values) (string, error) {
	defer g.st.reset()
	return g.buildInsert(values)
}

// FetchAll runs the SELECT statement of the query and returns every row.
func (g *Grid) FetchAll(ctx context.Context, fields ...string) ([]Row, error) {
	defer g.st.reset()
	q, err := g.buildSelect(fields)
	if err != nil {
		return nil, err
	}
	return g.read(ctx, "select", q)
}

// FetchOne returns the first row of the query. When no limit was set, the
// statement is limited to one row. It returns ErrNotFound when no row
// matches.
func (g *Grid) FetchOne(ctx context.Context, fields ...string) (Row, error) {
	defer g.st.reset()
	if g.st.limit == 0 {
		g.st.limit = 1
	}
	q, err := g.buildSelect(fields)
	if err != nil {
		return nil, err
	}
	rows, err := g.read(ctx, "select", q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Count returns the number of rows the query matches.
func (g *Grid) Count(ctx context.Context) (int64, error) {
	defer g.st.reset()
	q, err := g.buildCount()
	if err != nil {
		return 0, err
	}
	rows, err := g.read(ctx, "count", q)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := toInt64(rows[0]["count"])
	if err != nil {
		return 0, g.fail(Unexpected, q, err)
	}
	return n, nil
}

// Update writes values to the rows the query matches and returns the
// number of affected rows. The query must be filtered.
func (g *Grid) Update(ctx context.Context, values Values) (int64, error) {
	defer g.st.reset()
	q, err := g.buildUpdate(values)
	if err != nil {
		return 0, err
	}
	n, err := g.affect(ctx, g.drv, q)
	if err != nil {
		return 0, err
	}
	g.invalidate(ctx, g.st.table)
	return n, nil
}

// Delete removes the rows the query matches and returns their number. The
// query must be filtered.
func (g *Grid) Delete(ctx context.Context) (int64, error) {
	defer g.st.reset()
	q, err := g.buildDelete()
	if err != nil {
		return 0, err
	}
	n, err := g.affect(ctx, g.drv, q)
	if err != nil {
		return 0, err
	}
	g.invalidate(ctx, g.st.table)
	return n, nil
}

// Scrub deletes the rows the query matches together with the rows of the
// table's declared children that reference them. It returns the number of
// parent rows deleted. The query must be filtered.
func (g *Grid) Scrub(ctx context.Context) (int64, error) {
	defer g.st.reset()
	p, err := g.buildScrub()
	if err != nil {
		return 0, err
	}
	defer g.invalidateAll(ctx, p)
	if !g.atomicScrub || len(p.children) == 0 {
		return g.scrub(ctx, g.drv, p)
	}
	if g.drv == nil {
		return 0, g.fail(ConnectionFailed, p.parent, nil)
	}
	tx, err := g.drv.Tx(ctx)
	if err != nil {
		return 0, g.fail(Backend, p.parent, err)
	}
	n, err := g.scrub(ctx, tx, p)
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back scrub of %s: %v", err, p.table, rerr)
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, g.fail(Backend, p.parent, err)
	}
	return n, nil
}

func (g *Grid) scrub(ctx context.Context, eq dialect.ExecQuerier, p *scrubPlan) (int64, error) {
	keys := make([][]any, len(p.children))
	for i, q := range p.keys {
		rows, err := g.query(ctx, eq, q)
		if err != nil {
			return 0, err
		}
		seen := make(map[string]bool)
		for _, r := range rows {
			for _, v := range r {
				if k := fmt.Sprint(v); v != nil && !seen[k] {
					seen[k] = true
					keys[i] = append(keys[i], v)
				}
			}
		}
	}
	n, err := g.affect(ctx, eq, p.parent)
	if err != nil {
		return 0, err
	}
	w := g.wrapper()
	for i, jn := range p.children {
		if len(keys[i]) == 0 {
			continue
		}
		if _, err := g.affect(ctx, eq, childDelete(jn, keys[i], w)); err != nil {
			return 0, err
		}
	}
	g.affected = n
	return n, nil
}

// Insert adds a row to the selected table and returns the id the database
// generated for it. Keys of values may be aliases. Fields of the table
// with a declared default are generated when values omits them.
func (g *Grid) Insert(ctx context.Context, values Values) (int64, error) {
	defer g.st.reset()
	q, err := g.buildInsert(values)
	if err != nil {
		return 0, err
	}
	res, err := g.exec(ctx, g.drv, q)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, g.fail(Backend, q, err)
	}
	g.insertID = id
	g.invalidate(ctx, g.st.table)
	return id, nil
}

// RawQuery runs query verbatim and returns its rows. Nothing in query is
// escaped.
func (g *Grid) RawQuery(ctx context.Context, query string) ([]Row, error) {
	defer g.st.reset()
	return g.query(ctx, g.drv, query)
}

// read runs a SELECT of the selected table through the cache.
func (g *Grid) read(ctx context.Context, op, q string) ([]Row, error) {
	key := CacheKey{Table: g.st.table, Operation: op, Query: q}
	if rows, ok := g.cached(ctx, key); ok {
		return rows, nil
	}
	rows, err := g.query(ctx, g.drv, q)
	if err != nil {
		return nil, err
	}
	g.store(ctx, key, rows)
	return rows, nil
}

// invalidateAll drops the cached results touching the tables of a scrub.
func (g *Grid) invalidateAll(ctx context.Context, p *scrubPlan) {
	g.invalidate(ctx, p.table)
	for _, jn := range p.children {
		g.invalidate(ctx, jn.Table)
	}
}

// remember records q as sent to the driver.
func (g *Grid) remember(q string) {
	g.lastQuery = q
	g.queries = append(g.queries, q)
}

func (g *Grid) query(ctx context.Context, eq dialect.ExecQuerier, q string) ([]Row, error) {
	if eq == nil {
		return nil, g.fail(ConnectionFailed, q, nil)
	}
	g.remember(q)
	var rows sql.Rows
	if err := eq.Query(ctx, q, []any{}, &rows); err != nil {
		return nil, g.fail(Backend, q, err)
	}
	out, err := sql.ScanMaps(rows)
	if err != nil {
		return nil, g.fail(Backend, q, err)
	}
	return out, nil
}

func (g *Grid) exec(ctx context.Context, eq dialect.ExecQuerier, q string) (sql.Result, error) {
	if eq == nil {
		return nil, g.fail(ConnectionFailed, q, nil)
	}
	g.remember(q)
	var res sql.Result
	if err := eq.Exec(ctx, q, []any{}, &res); err != nil {
		return nil, g.fail(Backend, q, err)
	}
	return res, nil
}

// affect runs q and records the number of rows it affected.
func (g *Grid) affect(ctx context.Context, eq dialect.ExecQuerier, q string) (int64, error) {
	res, err := g.exec(ctx, eq, q)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, g.fail(Backend, q, err)
	}
	g.affected = n
	return n, nil
}

func toInt64(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count value %v (%T)", v, v)
	}
}
