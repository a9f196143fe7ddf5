package relational

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/samber/lo"
)

type (
	Resolve[M any]       func(ctx context.Context, db squirrel.BaseRunner, parents []M, fields []string) error
	FieldCheck           func(field string) error
	Binder[M, N any]     func(parents []M, children []N)
	QueryModifier[M any] func(query Query[M]) Query[M]
)

type Relation[M any] struct {
	Resolve Resolve[M]
	Check   FieldCheck
	Depends QueryModifier[M]
}

// HasMany binds every child matching belongTogether to its parent, keeping the child query's order.
func HasMany[M, N any](
	child *Schema[N],
	belongTogether func(M, N) bool,
	assign func(*M, []N),
	wherer func(parents []M) QueryMod,
	depends []string,
) Relation[M] {
	return CreateRelation(child, BindBy(belongTogether, assign), wherer, selecting[M](depends))
}

// HasOne binds the first matching child to its parent. Parents without a match are left untouched.
func HasOne[M, N any](
	child *Schema[N],
	belongTogether func(M, N) bool,
	assign func(*M, N),
	wherer func(parents []M) QueryMod,
	depends []string,
) Relation[M] {
	return CreateRelation(child, BindByOne(belongTogether, assign), wherer, selecting[M](depends))
}

func CreateRelation[M, N any](
	child *Schema[N],
	binder Binder[M, N],
	wherer func(parents []M) QueryMod,
	depends QueryModifier[M],
) Relation[M] {
	return Relation[M]{
		Check: child.Check,
		Resolve: func(ctx context.Context, db squirrel.BaseRunner, parents []M, fields []string) error {
			if len(parents) == 0 {
				return nil
			}

			children, err := child.Query(fields...).
				ModifyQuery(wherer(parents)).
				Collect(ctx, db)
			if err != nil {
				return err
			}

			binder(parents, children)

			return nil
		},
		Depends: depends,
	}
}

func BindBy[M, N any](belongTogether func(M, N) bool, assign func(*M, []N)) Binder[M, N] {
	return func(parents []M, children []N) {
		for ix := range parents {
			parent := &parents[ix]
			assign(parent, lo.Filter(children, func(child N, _ int) bool {
				return belongTogether(*parent, child)
			}))
		}
	}
}

func BindByOne[M, N any](belongTogether func(M, N) bool, assign func(*M, N)) Binder[M, N] {
	return func(parents []M, children []N) {
		for ix := range parents {
			parent := &parents[ix]
			child, ok := lo.Find(children, func(child N) bool {
				return belongTogether(*parent, child)
			})
			if ok {
				assign(parent, child)
			}
		}
	}
}

// WhereIDs restricts the child query to rows whose col is one of the parents' keys.
func WhereIDs[M any, K comparable](col string, key func(m M) K) func(parents []M) QueryMod {
	return func(parents []M) QueryMod {
		return func(q Q, table string) Q {
			keys := lo.Uniq(lo.Map(parents, func(parent M, _ int) K { return key(parent) }))
			return q.Where(squirrel.Eq{TableCol(table, col): keys})
		}
	}
}

func DependsOn(fields ...string) []string {
	return fields
}

func selecting[M any](fields []string) QueryModifier[M] {
	return func(query Query[M]) Query[M] {
		// An empty Select would mean "everything".
		if len(fields) == 0 {
			return query
		}
		return query.Select(fields...)
	}
}
