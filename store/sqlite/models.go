package sqlite

import (
	"github.com/samber/lo"
	"pollex.nl/bookshelf"
	"pollex.nl/bookshelf/relational"
)

type authorRow struct {
	ID    int
	Name  string
	Books []bookRow
}

type bookRow struct {
	ID       int
	Name     string
	AuthorID int
	Author   *authorRow
}

var bookSchema = relational.NewSchema[bookRow]("books").
	Column("id", func(t *bookRow) any { return &t.ID }).
	Column("name", func(t *bookRow) any { return &t.Name }).
	Column("author_id", func(t *bookRow) any { return &t.AuthorID }).
	ModifyQuery(relational.OrderBy("id"))

var authorSchema = relational.NewSchema[authorRow]("authors").
	Column("id", func(t *authorRow) any { return &t.ID }).
	Column("name", func(t *authorRow) any { return &t.Name }).
	ModifyQuery(relational.OrderBy("id")).
	AddRelation("books",
		relational.HasMany(bookSchema,
			func(a authorRow, b bookRow) bool { return b.AuthorID == a.ID },
			func(a *authorRow, books []bookRow) { a.Books = books },
			relational.WhereIDs("author_id", func(a authorRow) int { return a.ID }),
			relational.DependsOn("id", "books.author_id"),
		),
	)

func init() {
	bookSchema.AddRelation("author",
		relational.HasOne(authorSchema,
			func(b bookRow, a authorRow) bool { return a.ID == b.AuthorID },
			func(b *bookRow, a authorRow) { b.Author = &a },
			relational.WhereIDs("id", func(b bookRow) int { return b.AuthorID }),
			relational.DependsOn("author_id", "author.id"),
		))
}

func (row authorRow) domain() *bookshelf.Author {
	return &bookshelf.Author{ID: row.ID, Name: row.Name}
}

func (row bookRow) domain() *bookshelf.Book {
	return &bookshelf.Book{ID: row.ID, Name: row.Name, AuthorID: row.AuthorID}
}

func authorsOf(rows []authorRow) []*bookshelf.Author {
	return lo.Map(rows, func(row authorRow, _ int) *bookshelf.Author { return row.domain() })
}

func booksOf(rows []bookRow) []*bookshelf.Book {
	return lo.Map(rows, func(row bookRow, _ int) *bookshelf.Book { return row.domain() })
}
