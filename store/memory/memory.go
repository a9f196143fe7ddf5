// Package memory keeps authors and books in two slices of pointers.
//
// Records are shared: the pointers handed out are the stored records, so a
// field edit through any of them is seen by every reader.
package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"pollex.nl/bookshelf"
)

type Store struct {
	authors []*bookshelf.Author
	books   []*bookshelf.Book
}

var _ bookshelf.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		authors: []*bookshelf.Author{},
		books:   []*bookshelf.Book{},
	}
}

func (s *Store) AppendAuthor(_ context.Context, name string) (*bookshelf.Author, error) {
	author := &bookshelf.Author{ID: len(s.authors) + 1, Name: name}
	s.authors = append(s.authors, author)

	return author, nil
}

func (s *Store) AppendBook(_ context.Context, name string, authorID int) (*bookshelf.Book, error) {
	book := &bookshelf.Book{ID: len(s.books) + 1, Name: name, AuthorID: authorID}
	s.books = append(s.books, book)

	return book, nil
}

func (s *Store) Author(_ context.Context, id int) (*bookshelf.Author, error) {
	author, _ := lo.Find(s.authors, func(a *bookshelf.Author) bool { return a.ID == id })

	return author, nil
}

func (s *Store) Book(_ context.Context, id int) (*bookshelf.Book, error) {
	book, _ := lo.Find(s.books, func(b *bookshelf.Book) bool { return b.ID == id })

	return book, nil
}

// Authors returns a new slice over the stored records.
func (s *Store) Authors(context.Context) ([]*bookshelf.Author, error) {
	return slices.Clone(s.authors), nil
}

// Books returns a new slice over the stored records.
func (s *Store) Books(context.Context) ([]*bookshelf.Book, error) {
	return slices.Clone(s.books), nil
}

func (s *Store) UpdateAuthor(ctx context.Context, author *bookshelf.Author) error {
	stored, _ := s.Author(ctx, author.ID)
	if stored == nil {
		return fmt.Errorf("update author %d: %w", author.ID, bookshelf.ErrNotFound)
	}
	if stored != author {
		*stored = *author
	}

	return nil
}

func (s *Store) UpdateBook(ctx context.Context, book *bookshelf.Book) error {
	stored, _ := s.Book(ctx, book.ID)
	if stored == nil {
		return fmt.Errorf("update book %d: %w", book.ID, bookshelf.ErrNotFound)
	}
	if stored != book {
		*stored = *book
	}

	return nil
}

func (s *Store) Close() error { return nil }
