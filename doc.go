// Package grid builds and runs SQL statements from a fluent description of
// a query, resolving the field names it is given against a schema of
// tables, aliases and associations.
//
//	reg, err := schema.LoadFile("schema.yaml")
//	if err != nil {
//		return err
//	}
//	g := grid.New(drv, grid.WithSchema(reg))
//	rows, err := g.Table("orders").
//		Filter("amount > ? AND customer LIKE %?%", 100, "bob").
//		OrderBy("created", "desc").
//		Limit(10).
//		FetchAll(ctx, "id", "amount", "customer")
//
// Associations declared for a table are joined with LEFT JOIN unless
// suppressed, so fields of the joined tables can be selected and filtered
// by their short names. Filters are written as SQL fragments with ?
// placeholders; see package querylanguage for their syntax.
//
// Every failure is returned as an *Error, recorded in the Grid's ErrorLog
// and, unless hidden with HideErrors, logged with log/slog.
package grid
