// Package badgerkv keeps authors and books in an in-memory Badger key-value
// store.
//
// Keys are a collection prefix followed by the big-endian id, so a prefix
// scan walks records in id order, which is insertion order. Values are JSON.
package badgerkv

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"pollex.nl/bookshelf"
)

var (
	authorPrefix = []byte("author/")
	bookPrefix   = []byte("book/")
)

type Store struct {
	db *badger.DB
}

var _ bookshelf.Store = (*Store)(nil)

func Open() (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AppendAuthor(_ context.Context, name string) (*bookshelf.Author, error) {
	var author *bookshelf.Author
	err := s.db.Update(func(txn *badger.Txn) error {
		n, err := count(txn, authorPrefix)
		if err != nil {
			return err
		}
		author = &bookshelf.Author{ID: n + 1, Name: name}
		return put(txn, key(authorPrefix, author.ID), author)
	})
	if err != nil {
		return nil, fmt.Errorf("append author: %w", err)
	}

	return author, nil
}

func (s *Store) AppendBook(_ context.Context, name string, authorID int) (*bookshelf.Book, error) {
	var book *bookshelf.Book
	err := s.db.Update(func(txn *badger.Txn) error {
		n, err := count(txn, bookPrefix)
		if err != nil {
			return err
		}
		book = &bookshelf.Book{ID: n + 1, Name: name, AuthorID: authorID}
		return put(txn, key(bookPrefix, book.ID), book)
	})
	if err != nil {
		return nil, fmt.Errorf("append book: %w", err)
	}

	return book, nil
}

func (s *Store) Author(_ context.Context, id int) (*bookshelf.Author, error) {
	var author *bookshelf.Author
	err := s.db.View(func(txn *badger.Txn) (err error) {
		author, err = get[bookshelf.Author](txn, key(authorPrefix, id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get author %d: %w", id, err)
	}

	return author, nil
}

func (s *Store) Book(_ context.Context, id int) (*bookshelf.Book, error) {
	var book *bookshelf.Book
	err := s.db.View(func(txn *badger.Txn) (err error) {
		book, err = get[bookshelf.Book](txn, key(bookPrefix, id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}

	return book, nil
}

func (s *Store) Authors(context.Context) ([]*bookshelf.Author, error) {
	var authors []*bookshelf.Author
	err := s.db.View(func(txn *badger.Txn) (err error) {
		authors, err = list[bookshelf.Author](txn, authorPrefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}

	return authors, nil
}

func (s *Store) Books(context.Context) ([]*bookshelf.Book, error) {
	var books []*bookshelf.Book
	err := s.db.View(func(txn *badger.Txn) (err error) {
		books, err = list[bookshelf.Book](txn, bookPrefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return books, nil
}

func (s *Store) UpdateAuthor(_ context.Context, author *bookshelf.Author) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return replace(txn, key(authorPrefix, author.ID), author)
	})
	if err != nil {
		return fmt.Errorf("update author %d: %w", author.ID, err)
	}

	return nil
}

func (s *Store) UpdateBook(_ context.Context, book *bookshelf.Book) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return replace(txn, key(bookPrefix, book.ID), book)
	})
	if err != nil {
		return fmt.Errorf("update book %d: %w", book.ID, err)
	}

	return nil
}

func key(prefix []byte, id int) []byte {
	k := make([]byte, len(prefix)+8)
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], uint64(id))
	return k
}

// count walks every key under prefix, so appends are linear in the
// collection size.
func count(txn *badger.Txn, prefix []byte) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	itr := txn.NewIterator(opts)
	defer itr.Close()

	n := 0
	for itr.Seek(prefix); itr.ValidForPrefix(prefix); itr.Next() {
		n++
	}
	return n, nil
}

func put(txn *badger.Txn, k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(k, data)
}

// replace fails with bookshelf.ErrNotFound instead of creating the record.
func replace(txn *badger.Txn, k []byte, v any) error {
	if _, err := txn.Get(k); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return bookshelf.ErrNotFound
		}
		return err
	}
	return put(txn, k, v)
}

func get[T any](txn *badger.Txn, k []byte) (*T, error) {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var v T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func list[T any](txn *badger.Txn, prefix []byte) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	itr := txn.NewIterator(opts)
	defer itr.Close()

	out := []*T{}
	for itr.Seek(prefix); itr.ValidForPrefix(prefix); itr.Next() {
		var v T
		err := itr.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}
