// Package seed fills a fresh store with initial authors and books, either
// the built-in demo data or records read from an HCL file:
//
//	author {
//	  id   = 1
//	  name = "J. K. Rowling"
//	}
//
//	book {
//	  id        = 1
//	  name      = "Harry Potter and the Chamber of Secrets"
//	  author_id = 1
//	}
//
// Ids must be 1, 2, 3... in file order because the store assigns them that way.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"pollex.nl/bookshelf"
)

var ErrIDMismatch = errors.New("seed id does not match assigned id")

type Data struct {
	Authors []Author `hcl:"author,block"`
	Books   []Book   `hcl:"book,block"`
}

type Author struct {
	ID   int    `hcl:"id"`
	Name string `hcl:"name"`
}

type Book struct {
	ID       int    `hcl:"id"`
	Name     string `hcl:"name"`
	AuthorID int    `hcl:"author_id"`
}

// Default is the demo library served when no seed file is given.
func Default() *Data {
	return &Data{
		Authors: []Author{
			{ID: 1, Name: "J. K. Rowling"},
			{ID: 2, Name: "J. R. R. Tolkien"},
			{ID: 3, Name: "Brent Weeks"},
		},
		Books: []Book{
			{ID: 1, Name: "Harry Potter and the Chamber of Secrets", AuthorID: 1},
			{ID: 2, Name: "Harry Potter and the Prisoner of Azkaban", AuthorID: 1},
			{ID: 3, Name: "Harry Potter and the Goblet of Fire", AuthorID: 1},
			{ID: 4, Name: "The Fellowship of the Ring", AuthorID: 2},
			{ID: 5, Name: "The Two Towers", AuthorID: 2},
			{ID: 6, Name: "The Return of the King", AuthorID: 2},
			{ID: 7, Name: "The Way of Shadows", AuthorID: 3},
			{ID: 8, Name: "Beyond the Shadows", AuthorID: 3},
		},
	}
}

func Load(path string) (*Data, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, diags)
	}

	var data Data
	if diags := gohcl.DecodeBody(file.Body, nil, &data); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, diags)
	}

	return &data, nil
}

// Apply adds every author, then every book, through the service so books are
// checked against their authors. It stops at the first failure.
func Apply(ctx context.Context, svc *bookshelf.Service, data *Data) error {
	for _, a := range data.Authors {
		author, err := svc.AddAuthor(ctx, a.Name)
		if err != nil {
			return fmt.Errorf("seed author %d: %w", a.ID, err)
		}
		if author.ID != a.ID {
			return fmt.Errorf("%w: author %q declared %d, assigned %d", ErrIDMismatch, a.Name, a.ID, author.ID)
		}
	}

	for _, b := range data.Books {
		book, err := svc.AddBook(ctx, b.Name, b.AuthorID)
		if err != nil {
			return fmt.Errorf("seed book %d: %w", b.ID, err)
		}
		if book.ID != b.ID {
			return fmt.Errorf("%w: book %q declared %d, assigned %d", ErrIDMismatch, b.Name, b.ID, book.ID)
		}
	}

	return nil
}
