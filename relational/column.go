package relational

import "github.com/Masterminds/squirrel"

type (
	Q        = squirrel.SelectBuilder
	QueryMod func(q Q, table string) Q

	Ptrs           []any
	Action         func()
	RowScan[T any] func(*T) (Ptrs, Action)

	FieldType[T any] struct {
		Mod     QueryMod
		RowScan RowScan[T]
	}
)

// Col selects a single column of the model's table.
func Col(name string) QueryMod {
	return func(q Q, table string) Q { return q.Column(TableCol(table, name)) }
}

// OrderBy sorts the result on a column of the model's table.
func OrderBy(name string) QueryMod {
	return func(q Q, table string) Q { return q.OrderBy(TableCol(table, name)) }
}

// Where filters on columns of the model's table. Keys of eq are unqualified column names.
func Where(eq squirrel.Eq) QueryMod {
	return func(q Q, table string) Q {
		qualified := make(squirrel.Eq, len(eq))
		for col, v := range eq {
			qualified[TableCol(table, col)] = v
		}
		return q.Where(qualified)
	}
}

func TableCol(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

func Ptr[T any](ptr func(t *T) any) RowScan[T] {
	return func(t *T) (Ptrs, Action) {
		return Ptrs{ptr(t)}, nil
	}
}

func Field[T any](mod QueryMod, scan RowScan[T]) FieldType[T] {
	return FieldType[T]{Mod: mod, RowScan: scan}
}

func applyMods(q Q, table string, mods []QueryMod) Q {
	for _, mod := range mods {
		q = mod(q, table)
	}

	return q
}

// joinScans merges the scans of all selected fields into one, in selection order,
// so the pointers line up with the columns added by the fields' mods.
func joinScans[T any](scans []RowScan[T]) RowScan[T] {
	return func(t *T) (Ptrs, Action) {
		var (
			pointers Ptrs
			actions  []Action
		)
		for _, scan := range scans {
			ptrs, action := scan(t)
			pointers = append(pointers, ptrs...)
			if action != nil {
				actions = append(actions, action)
			}
		}

		return pointers, func() {
			for _, action := range actions {
				action()
			}
		}
	}
}
