// Package graph resolves the field names callers use to the columns of a
// table and the tables associated with it.
//
// A Scope is built from a schema.Registry, a primary table and an Assoc
// mode. Its candidate fields are the primary table's fields followed by
// the fields of each joined table, in declaration order. A name matches a
// candidate when it equals the field or one of its aliases; the first
// match wins.
//
//	s := graph.NewScope(reg, "orders", graph.AllAssoc)
//	s.Lookup("name")         // `customers`.`name`, true
//	s.Lookup("count(id)")    // COUNT(`orders`.`id`), true
//	s.Select("id,customer")  // `orders`.`id` AS `orders.id`, `orders`.`id` AS `id`, ...
//	s.JoinClause()           //  LEFT JOIN `customers` ON `orders`.`customer_id` = `customers`.`id`
package graph
