package relational

import (
	"context"
	"log/slog"
)

func collect[T any](ctx context.Context, q Q, scan RowScan[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Default().Error("collect: failed to close rows", "error", err.Error())
		}
	}()

	collection := []T{}
	for rows.Next() {
		var t T
		pointers, action := scan(&t)
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		action()
		collection = append(collection, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collection, nil
}
