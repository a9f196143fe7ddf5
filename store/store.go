// Package store opens one of the Store backends by name.
package store

import (
	"context"
	"fmt"

	"pollex.nl/bookshelf"
	"pollex.nl/bookshelf/store/badgerkv"
	"pollex.nl/bookshelf/store/memory"
	"pollex.nl/bookshelf/store/sqlite"
)

const (
	Memory = "memory"
	SQLite = "sqlite"
	Badger = "badger"
)

// Backends lists the names Open accepts.
var Backends = []string{Memory, SQLite, Badger}

// Backend is a Store that owns resources released by Close.
type Backend interface {
	bookshelf.Store
	Close() error
}

func Open(ctx context.Context, name string) (Backend, error) {
	switch name {
	case Memory:
		return memory.New(), nil
	case SQLite:
		return sqlite.Open(ctx)
	case Badger:
		return badgerkv.Open()
	default:
		return nil, fmt.Errorf("unknown store %q", name)
	}
}
