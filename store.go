package bookshelf

import "context"

// Store holds authors and books for the lifetime of the process.
//
// Appends assign the id "current collection length + 1", which stays unique
// only because records are never deleted. Single lookups return nil, nil when
// nothing matches. Lists are in insertion order.
//
// Stores do no locking of their own; callers serialize access.
type Store interface {
	AppendAuthor(ctx context.Context, name string) (*Author, error)
	AppendBook(ctx context.Context, name string, authorID int) (*Book, error)

	Author(ctx context.Context, id int) (*Author, error)
	Book(ctx context.Context, id int) (*Book, error)
	Authors(ctx context.Context) ([]*Author, error)
	Books(ctx context.Context) ([]*Book, error)

	// UpdateAuthor and UpdateBook overwrite the stored record with the same id.
	UpdateAuthor(ctx context.Context, author *Author) error
	UpdateBook(ctx context.Context, book *Book) error
}

// Relations is implemented by stores that can follow author/book links
// without scanning every book.
type Relations interface {
	BooksByAuthor(ctx context.Context, authorID int) ([]*Book, error)
	AuthorOfBook(ctx context.Context, book *Book) (*Author, error)
}
