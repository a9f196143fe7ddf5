package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
)

var (
	// ErrNoSuchField is returned when there is no field or no relation with that name.
	ErrNoSuchField = errors.New("field does not exist")
	// ErrNoSuchRelation is returned when selecting a nested field on something that is not a relation.
	ErrNoSuchRelation = errors.New("relation does not exist")
	// ErrTooManyResults is returned when CollectOne matched more than one row.
	ErrTooManyResults = errors.New("too many results for CollectOne")
)

type Query[T any] struct {
	schema *Schema[T]

	fields         map[string]FieldType[T]
	relations      map[string]Relation[T]
	relationFields map[string][]string
	mods           []QueryMod

	errors []error
}

func newQuery[T any](schema *Schema[T], fields ...string) Query[T] {
	query := Query[T]{
		schema:         schema,
		fields:         map[string]FieldType[T]{},
		relations:      map[string]Relation[T]{},
		relationFields: map[string][]string{},
	}

	return query.Select(fields...)
}

func (query Query[T]) Select(names ...string) Query[T] {
	if len(names) == 0 {
		query.selectAllFields()
		return query
	}

	for _, name := range names {
		query.resolveSelect(name)
	}

	return query
}

// Where narrows the base rows of the query.
func (query Query[T]) Where(eq squirrel.Eq) Query[T] {
	return query.ModifyQuery(Where(eq))
}

func (query Query[T]) ModifyQuery(mod QueryMod) Query[T] {
	query.mods = append(slices.Clip(query.mods), mod)

	return query
}

func (query *Query[T]) resolveSelect(name string) {
	field, rest := splitNested(name)

	if field == "*" {
		if rest != "" {
			query.addError(fmt.Errorf("%w: %s", ErrNoSuchRelation, field))
			return
		}
		query.selectAllFields()
		return
	}

	if relation, ok := query.schema.Relations[field]; ok {
		if rest != "" && rest != "*" {
			if err := relation.Check(rest); err != nil {
				query.addError(err)
				return
			}
		}
		query.selectRelation(field, rest)
		return
	}

	if fieldType, ok := query.schema.Fields[field]; ok {
		if rest != "" {
			query.addError(fmt.Errorf("%w: %s", ErrNoSuchRelation, field))
			return
		}
		query.fields[field] = fieldType
		return
	}

	query.addError(fmt.Errorf("%w: %s.%s", ErrNoSuchField, query.schema.Table, field))
}

func (query *Query[T]) selectAllFields() {
	maps.Copy(query.fields, query.schema.Fields)
}

func (query *Query[T]) selectRelation(name, field string) {
	if field == "" {
		field = "*"
	}

	query.relations[name] = query.schema.Relations[name]
	query.relationFields[name] = append(query.relationFields[name], field)
}

// =================
// Finishers
// =================

func (query Query[T]) Err() error {
	return errors.Join(query.errors...)
}

func (query Query[T]) Collect(ctx context.Context, db squirrel.BaseRunner) ([]T, error) {
	if err := query.Err(); err != nil {
		return nil, err
	}

	parents, err := query.collectBase(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := query.resolveRelations(ctx, db, parents); err != nil {
		return nil, err
	}

	return parents, nil
}

// CollectOne returns sql.ErrNoRows when nothing matched.
func (query Query[T]) CollectOne(ctx context.Context, db squirrel.BaseRunner) (*T, error) {
	if err := query.Err(); err != nil {
		return nil, err
	}

	parents, err := query.collectBase(ctx, db)
	if err != nil {
		return nil, err
	}

	switch {
	case len(parents) == 0:
		return nil, sql.ErrNoRows
	case len(parents) > 1:
		return nil, ErrTooManyResults
	}

	if err := query.resolveRelations(ctx, db, parents); err != nil {
		return nil, err
	}

	return &parents[0], nil
}

func (query Query[T]) collectBase(ctx context.Context, db squirrel.BaseRunner) ([]T, error) {
	table := query.schema.Table
	q := squirrel.StatementBuilder.RunWith(db).Select().From(table)

	q = applyMods(q, table, query.schema.QueryMods)
	q = applyMods(q, table, query.mods)

	// Relations pull in the fields they need to bind children to parents.
	for _, name := range slices.Sorted(maps.Keys(query.relations)) {
		query = query.relations[name].Depends(query)
	}

	var scans []RowScan[T]
	for _, name := range slices.Sorted(maps.Keys(query.fields)) {
		field := query.fields[name]
		q = field.Mod(q, table)
		scans = append(scans, field.RowScan)
	}

	return collect(ctx, q, joinScans(scans))
}

func (query Query[T]) resolveRelations(ctx context.Context, db squirrel.BaseRunner, parents []T) error {
	for _, name := range slices.Sorted(maps.Keys(query.relations)) {
		err := query.relations[name].Resolve(ctx, db, parents, query.relationFields[name])
		if err != nil {
			return fmt.Errorf("resolve %s.%s: %w", query.schema.Table, name, err)
		}
	}

	return nil
}

// =================
// Utilities
// =================

func (query *Query[T]) addError(err error) {
	query.errors = append(query.errors, err)
}

func splitNested(name string) (string, string) {
	field, rest, _ := strings.Cut(name, ".")
	return field, rest
}
