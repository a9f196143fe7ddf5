// Package relational maps Go structs onto SQL tables and resolves relations
// between them on demand.
//
// A Schema lists the selectable fields of a type and its relations. A Query
// selects fields by name; dotted names ("books.name") select fields of a
// related schema and resolve that relation with one extra query per relation,
// binding children to parents in memory.
package relational
