// Package schema describes the tables the query builder can reach.
//
// A schema document is YAML keyed by table name:
//
//	customers:
//	  fields: id, name, email
//	  alias:
//	    customer: name
//	  children:
//	    orders: [id, customer_id]
//	orders:
//	  fields: [id, customer_id, total, created]
//	  assoc:
//	    customers: [customer_id, id]
//	  defaults:
//	    created: now
//
// Fields keep their declared order; that order decides which field wins
// when a name matches more than one table. Assoc and Children keep their
// declared order too. A join given as null ("customers: ~") gets the keys
// customer_id and id.
//
// Parse and LoadFile read documents, Load indexes Definitions into an
// immutable Registry, Validate checks the references a Registry holds, and
// Watch keeps a Source current while the file changes on disk.
//
// Generators supplies default values for fields an insert leaves out.
package schema
