// Package sqlite keeps authors and books in an in-memory SQLite database.
//
// Reads go through relational schemas, so following author/book links is a
// keyed query instead of a scan over every book.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"pollex.nl/bookshelf"
)

const migrate = `
	create table authors (
		id integer not null primary key,
		name text not null
	);
	create table books (
		id integer not null primary key,
		name text not null,
		author_id integer not null
	);
	create index books_author_id on books (author_id);
	`

type Store struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

var (
	_ bookshelf.Store     = (*Store)(nil)
	_ bookshelf.Relations = (*Store)(nil)
)

// Open creates a fresh database that lives as long as the returned store.
func Open(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to file::memory: is its own database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.ExecContext(ctx, migrate); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &Store{db: db, sq: squirrel.StatementBuilder.RunWith(db)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AppendAuthor(ctx context.Context, name string) (*bookshelf.Author, error) {
	id, err := s.nextID(ctx, "authors")
	if err != nil {
		return nil, err
	}

	_, err = s.sq.Insert("authors").
		Columns("id", "name").
		Values(id, name).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert author: %w", err)
	}

	return &bookshelf.Author{ID: id, Name: name}, nil
}

func (s *Store) AppendBook(ctx context.Context, name string, authorID int) (*bookshelf.Book, error) {
	id, err := s.nextID(ctx, "books")
	if err != nil {
		return nil, err
	}

	_, err = s.sq.Insert("books").
		Columns("id", "name", "author_id").
		Values(id, name, authorID).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	return &bookshelf.Book{ID: id, Name: name, AuthorID: authorID}, nil
}

func (s *Store) Author(ctx context.Context, id int) (*bookshelf.Author, error) {
	row, err := authorSchema.Query().Where(squirrel.Eq{"id": id}).CollectOne(ctx, s.db)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select author %d: %w", id, err)
	}

	return row.domain(), nil
}

func (s *Store) Book(ctx context.Context, id int) (*bookshelf.Book, error) {
	row, err := bookSchema.Query().Where(squirrel.Eq{"id": id}).CollectOne(ctx, s.db)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select book %d: %w", id, err)
	}

	return row.domain(), nil
}

func (s *Store) Authors(ctx context.Context) ([]*bookshelf.Author, error) {
	rows, err := authorSchema.Query().Collect(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("select authors: %w", err)
	}

	return authorsOf(rows), nil
}

func (s *Store) Books(ctx context.Context) ([]*bookshelf.Book, error) {
	rows, err := bookSchema.Query().Collect(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}

	return booksOf(rows), nil
}

func (s *Store) UpdateAuthor(ctx context.Context, author *bookshelf.Author) error {
	res, err := s.sq.Update("authors").
		Set("name", author.Name).
		Where(squirrel.Eq{"id": author.ID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update author %d: %w", author.ID, err)
	}

	return expectOne(res, "author", author.ID)
}

func (s *Store) UpdateBook(ctx context.Context, book *bookshelf.Book) error {
	res, err := s.sq.Update("books").
		Set("name", book.Name).
		Set("author_id", book.AuthorID).
		Where(squirrel.Eq{"id": book.ID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update book %d: %w", book.ID, err)
	}

	return expectOne(res, "book", book.ID)
}

// BooksByAuthor resolves the author's books relation. Books may point at an
// author that does not exist (edits are not checked), so a missing author
// falls back to filtering books directly.
func (s *Store) BooksByAuthor(ctx context.Context, authorID int) ([]*bookshelf.Book, error) {
	author, err := authorSchema.Query("id", "books").
		Where(squirrel.Eq{"id": authorID}).
		CollectOne(ctx, s.db)
	if errors.Is(err, sql.ErrNoRows) {
		rows, err := bookSchema.Query().Where(squirrel.Eq{"author_id": authorID}).Collect(ctx, s.db)
		if err != nil {
			return nil, fmt.Errorf("select books of author %d: %w", authorID, err)
		}
		return booksOf(rows), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select books of author %d: %w", authorID, err)
	}

	return booksOf(author.Books), nil
}

// AuthorOfBook resolves the author relation for the book as given, following
// its AuthorID rather than the stored row.
func (s *Store) AuthorOfBook(ctx context.Context, book *bookshelf.Book) (*bookshelf.Author, error) {
	rows := []bookRow{{ID: book.ID, Name: book.Name, AuthorID: book.AuthorID}}
	err := bookSchema.Relations["author"].Resolve(ctx, s.db, rows, []string{"*"})
	if err != nil {
		return nil, fmt.Errorf("select author of book %d: %w", book.ID, err)
	}
	if rows[0].Author == nil {
		return nil, nil
	}

	return rows[0].Author.domain(), nil
}

func (s *Store) nextID(ctx context.Context, table string) (int, error) {
	var count int
	err := s.sq.Select("count(*)").From(table).QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	return count + 1, nil
}

func expectOne(res sql.Result, kind string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %d: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s %d: %w", kind, id, bookshelf.ErrNotFound)
	}

	return nil
}
