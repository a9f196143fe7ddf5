package bookshelf

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

// Resolver derives the author/book associations from the store on every
// call. Nothing is cached.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// BooksByAuthor returns the books whose AuthorID is authorID, in insertion order.
func (r *Resolver) BooksByAuthor(ctx context.Context, authorID int) ([]*Book, error) {
	if rel, ok := r.store.(Relations); ok {
		return rel.BooksByAuthor(ctx, authorID)
	}

	books, err := r.store.Books(ctx)
	if err != nil {
		return nil, fmt.Errorf("books by author %d: %w", authorID, err)
	}

	return lo.Filter(books, func(book *Book, _ int) bool { return book.AuthorID == authorID }), nil
}

// AuthorOfBook returns nil when the referenced author was never created.
func (r *Resolver) AuthorOfBook(ctx context.Context, book *Book) (*Author, error) {
	if rel, ok := r.store.(Relations); ok {
		return rel.AuthorOfBook(ctx, book)
	}

	author, err := r.store.Author(ctx, book.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("author of book %d: %w", book.ID, err)
	}

	return author, nil
}
