package relational

import "fmt"

// Schema describes how a Go type T maps onto a table and how it relates to other schemas.
type Schema[T any] struct {
	Table     string
	Fields    map[string]FieldType[T]
	Relations map[string]Relation[T]
	QueryMods []QueryMod
}

func NewSchema[T any](table string) *Schema[T] {
	return &Schema[T]{
		Table:     table,
		Fields:    map[string]FieldType[T]{},
		Relations: map[string]Relation[T]{},
	}
}

func (schema *Schema[T]) AddField(name string, mod QueryMod, scan RowScan[T]) *Schema[T] {
	schema.Fields[name] = Field(mod, scan)

	return schema
}

// Column adds a field whose name is also its column name.
func (schema *Schema[T]) Column(name string, ptr func(t *T) any) *Schema[T] {
	return schema.AddField(name, Col(name), Ptr(ptr))
}

func (schema *Schema[T]) AddRelation(name string, relation Relation[T]) *Schema[T] {
	schema.Relations[name] = relation

	return schema
}

// ModifyQuery registers a mod applied to every query built from this schema.
func (schema *Schema[T]) ModifyQuery(mod QueryMod) *Schema[T] {
	schema.QueryMods = append(schema.QueryMods, mod)

	return schema
}

// Query starts a query selecting the given fields. No fields means all fields.
// Dotted names ("books.name") select fields of a relation and imply resolving it.
func (schema *Schema[T]) Query(fields ...string) Query[T] {
	return newQuery(schema, fields...)
}

// Check reports whether a (possibly dotted) field name can be selected.
func (schema *Schema[T]) Check(field string) error {
	field, rest := splitNested(field)
	if field == "" || field == "*" {
		return nil
	}

	if relation, ok := schema.Relations[field]; ok {
		return relation.Check(rest)
	}

	if _, ok := schema.Fields[field]; ok {
		if rest != "" {
			return fmt.Errorf("%w: %s", ErrNoSuchRelation, field)
		}
		return nil
	}

	return fmt.Errorf("%w: %s.%s", ErrNoSuchField, schema.Table, field)
}
