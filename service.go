package bookshelf

import (
	"context"
	"fmt"
	"log/slog"
)

// Service is the query and mutation surface over a Store.
type Service struct {
	store    Store
	resolver *Resolver
	logger   *slog.Logger
	strict   bool
}

func NewService(store Store) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store),
		logger:   slog.Default(),
	}
}

func (s *Service) WithLogger(logger *slog.Logger) *Service {
	s.logger = logger
	return s
}

// WithStrictEdits makes EditBook check that a new AuthorID references an
// existing author, like AddBook does.
func (s *Service) WithStrictEdits(strict bool) *Service {
	s.strict = strict
	return s
}

func (s *Service) Resolver() *Resolver { return s.resolver }

// =================
// Queries
// =================

// Book returns nil, nil when there is no book with that id.
func (s *Service) Book(ctx context.Context, id int) (*Book, error) {
	return s.store.Book(ctx, id)
}

func (s *Service) Books(ctx context.Context) ([]*Book, error) {
	return s.store.Books(ctx)
}

// Author returns nil, nil when there is no author with that id.
func (s *Service) Author(ctx context.Context, id int) (*Author, error) {
	return s.store.Author(ctx, id)
}

func (s *Service) Authors(ctx context.Context) ([]*Author, error) {
	return s.store.Authors(ctx)
}

// =================
// Mutations
// =================

func (s *Service) AddBook(ctx context.Context, name string, authorID int) (*Book, error) {
	if err := s.requireAuthor(ctx, authorID); err != nil {
		return nil, err
	}

	book, err := s.store.AppendBook(ctx, name, authorID)
	if err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}

	s.logger.DebugContext(ctx, "book added", "id", book.ID, "authorId", book.AuthorID)
	return book, nil
}

// EditBook overwrites the supplied fields only. A new AuthorID is not
// checked unless strict edits are on.
func (s *Service) EditBook(ctx context.Context, in EditBookInput) (*Book, error) {
	book, err := s.store.Book(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("edit book: %w", err)
	}
	if book == nil {
		return nil, bookNotFound(in.ID)
	}

	if s.strict && in.AuthorID != nil {
		if err := s.requireAuthor(ctx, *in.AuthorID); err != nil {
			return nil, err
		}
	}

	if in.Name != nil {
		book.Name = *in.Name
	}
	if in.AuthorID != nil {
		book.AuthorID = *in.AuthorID
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("edit book: %w", err)
	}

	s.logger.DebugContext(ctx, "book edited", "id", book.ID)
	return book, nil
}

func (s *Service) AddAuthor(ctx context.Context, name string) (*Author, error) {
	author, err := s.store.AppendAuthor(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("add author: %w", err)
	}

	s.logger.DebugContext(ctx, "author added", "id", author.ID)
	return author, nil
}

func (s *Service) EditAuthor(ctx context.Context, in EditAuthorInput) (*Author, error) {
	author, err := s.store.Author(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("edit author: %w", err)
	}
	if author == nil {
		return nil, authorNotFound(in.ID)
	}

	if in.Name != nil {
		author.Name = *in.Name
	}

	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("edit author: %w", err)
	}

	s.logger.DebugContext(ctx, "author edited", "id", author.ID)
	return author, nil
}

func (s *Service) requireAuthor(ctx context.Context, id int) error {
	author, err := s.store.Author(ctx, id)
	if err != nil {
		return fmt.Errorf("look up author %d: %w", id, err)
	}
	if author == nil {
		return missingAuthor(id)
	}

	return nil
}
