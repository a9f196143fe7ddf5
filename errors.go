package bookshelf

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a mutation targets a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrReferentialIntegrity is returned when a book would reference an author that does not exist.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
)

func bookNotFound(id int) error {
	return fmt.Errorf("%w: book with id %d not found", ErrNotFound, id)
}

func authorNotFound(id int) error {
	return fmt.Errorf("%w: author with id %d not found", ErrNotFound, id)
}

func missingAuthor(id int) error {
	return fmt.Errorf("%w: author with id %d does not exist", ErrReferentialIntegrity, id)
}
