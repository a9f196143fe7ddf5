//nolint:errcheck
package relational_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollex.nl/bookshelf/relational"
)

type Author struct {
	ID    int
	Name  string
	Tags  []string
	Books []Book
}

type Book struct {
	ID       int
	Name     string
	AuthorID int
	Reviews  []Review
	Author   *Author
}

type Review struct {
	ID     int
	Body   string
	BookID int
	Book   *Book
}

const migrate = `
	create table authors (
		id integer not null,
		name text not null,
		tags text not null
	);
	create table books (
		id integer not null,
		name text not null,
		author_id integer
	);
	create table reviews (
		id integer not null,
		body text not null,
		book_id integer
	);
	`

var (
	review = relational.NewSchema[Review]("reviews").
		Column("id", func(t *Review) any { return &t.ID }).
		Column("body", func(t *Review) any { return &t.Body }).
		Column("book_id", func(t *Review) any { return &t.BookID }).
		ModifyQuery(relational.OrderBy("id"))

	book = relational.NewSchema[Book]("books").
		Column("id", func(t *Book) any { return &t.ID }).
		Column("name", func(t *Book) any { return &t.Name }).
		Column("author_id", func(t *Book) any { return &t.AuthorID }).
		ModifyQuery(relational.OrderBy("id")).
		AddRelation("reviews",
			relational.HasMany(review,
				func(b Book, r Review) bool { return r.BookID == b.ID },
				func(b *Book, reviews []Review) { b.Reviews = reviews },
				relational.WhereIDs("book_id", func(b Book) int { return b.ID }),
				relational.DependsOn("id", "reviews.book_id"),
			),
		)

	author = relational.NewSchema[Author]("authors").
		Column("id", func(t *Author) any { return &t.ID }).
		Column("name", func(t *Author) any { return &t.Name }).
		AddField(
			"tags",
			relational.Col("tags"),
			func(t *Author) (relational.Ptrs, relational.Action) {
				var tags string
				return relational.Ptrs{&tags}, func() {
					t.Tags = strings.Split(tags, ",")
				}
			},
		).
		ModifyQuery(relational.OrderBy("id")).
		AddRelation("books",
			relational.HasMany(book,
				func(a Author, b Book) bool { return b.AuthorID == a.ID },
				func(a *Author, books []Book) { a.Books = books },
				relational.WhereIDs("author_id", func(a Author) int { return a.ID }),
				relational.DependsOn("id", "books.author_id"),
			),
		)
)

func init() {
	review.AddRelation("book",
		relational.HasOne(book,
			func(r Review, b Book) bool { return r.BookID == b.ID },
			func(r *Review, b Book) { r.Book = &b },
			relational.WhereIDs("id", func(r Review) int { return r.BookID }),
			relational.DependsOn("book_id", "book.id"),
		))
	book.AddRelation("author",
		relational.HasOne(author,
			func(b Book, a Author) bool { return b.AuthorID == a.ID },
			func(b *Book, a Author) { b.Author = &a },
			relational.WhereIDs("id", func(b Book) int { return b.AuthorID }),
			relational.DependsOn("author_id", "author.id"),
		))
}

func setupDB(t testing.TB) (*sql.DB, squirrel.StatementBuilderType) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(migrate)
	require.NoError(t, err)

	return db, squirrel.StatementBuilder.RunWith(db)
}

func seed(sq squirrel.StatementBuilderType) {
	sq.Insert("authors").
		Values(1, "Jeff", "cool,awesome").
		Values(2, "Madonna", "vocal").Exec()
	sq.Insert("books").
		Values(1, "Life of Jeff", 1).
		Values(2, "Cooking like Jeff", 1).
		Values(3, "Sing baby sing", 2).
		Values(4, "the singeth hath endeth", 2).Exec()
	sq.Insert("reviews").
		Values(1, "Great book!", 1).
		Values(2, "Very insightful", 2).
		Values(3, "A masterpiece", 3).
		Values(4, "Could be better", 4).Exec()
}

func TestSchemaFields(t *testing.T) {
	db, sq := setupDB(t)
	seed(sq)
	ctx := context.Background()

	t.Run("select fields", func(t *testing.T) {
		authors, err := author.Query("id", "tags").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, authors, 2)
		for i := range 2 {
			assert.Empty(t, authors[i].Name)
			assert.NotEmpty(t, authors[i].ID)
			assert.NotEmpty(t, authors[i].Tags)
		}
	})

	t.Run("select all by not providing fields", func(t *testing.T) {
		authors, err := author.Query().Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, authors, 2)
		assert.Equal(t, "Jeff", authors[0].Name)
		assert.Equal(t, []string{"cool", "awesome"}, authors[0].Tags)
		assert.Equal(t, "Madonna", authors[1].Name)
	})

	t.Run("unknown field is an error", func(t *testing.T) {
		_, err := author.Query("id", "age").Collect(ctx, db)
		assert.ErrorIs(t, err, relational.ErrNoSuchField)
	})

	t.Run("nested field on a plain field is an error", func(t *testing.T) {
		_, err := author.Query("name.first").Collect(ctx, db)
		assert.ErrorIs(t, err, relational.ErrNoSuchRelation)
	})

	t.Run("unknown nested field is an error", func(t *testing.T) {
		_, err := author.Query("books.isbn").Collect(ctx, db)
		assert.ErrorIs(t, err, relational.ErrNoSuchField)
	})

	t.Run("where narrows rows", func(t *testing.T) {
		books, err := book.Query().
			Where(squirrel.Eq{"author_id": 2}).
			Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, books, 2)
		assert.Equal(t, 3, books[0].ID)
		assert.Equal(t, 4, books[1].ID)
	})

	t.Run("no rows collects an empty slice", func(t *testing.T) {
		books, err := book.Query().Where(squirrel.Eq{"author_id": 42}).Collect(ctx, db)
		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})
}

func TestSchemaRelations(t *testing.T) {
	db, sq := setupDB(t)
	seed(sq)
	ctx := context.Background()

	t.Run("relation all fields", func(t *testing.T) {
		authors, err := author.Query("id", "books").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, authors, 2)
		require.Len(t, authors[0].Books, 2)
		require.Len(t, authors[1].Books, 2)
		assert.Equal(t, "Life of Jeff", authors[0].Books[0].Name)
		assert.Equal(t, "Cooking like Jeff", authors[0].Books[1].Name)
		assert.Equal(t, 2, authors[1].Books[0].AuthorID)
	})

	t.Run("base and relation all fields", func(t *testing.T) {
		authors, err := author.Query("*", "books").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, authors, 2)
		assert.NotEmpty(t, authors[0].Name)
		require.Len(t, authors[0].Books, 2)
		require.Len(t, authors[1].Books, 2)
	})

	t.Run("nested relations with specific fields", func(t *testing.T) {
		authors, err := author.Query("id", "name", "books.id", "books.author_id", "books.reviews.body", "books.reviews.book_id").
			Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, authors, 2)
		for _, a := range authors {
			require.Len(t, a.Books, 2)
			for _, b := range a.Books {
				require.Len(t, b.Reviews, 1)
				assert.Empty(t, b.Name)
				assert.Empty(t, b.Reviews[0].ID)
				assert.NotEmpty(t, b.Reviews[0].Body)
			}
		}
	})

	t.Run("backref", func(t *testing.T) {
		books, err := book.Query("*", "reviews", "reviews.book").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, books, 4)
		for _, b := range books {
			require.NotNil(t, b.Reviews[0].Book)
			assert.Equal(t, b.ID, b.Reviews[0].Book.ID)
		}
	})

	t.Run("has one", func(t *testing.T) {
		b, err := book.Query("id", "author").
			Where(squirrel.Eq{"id": 3}).
			CollectOne(ctx, db)
		require.NoError(t, err)

		require.NotNil(t, b.Author)
		assert.Equal(t, "Madonna", b.Author.Name)
	})

	t.Run("has one without a match leaves the parent untouched", func(t *testing.T) {
		sq.Insert("books").Values(5, "Orphan", 9).Exec()
		defer sq.Delete("books").Where(squirrel.Eq{"id": 5}).Exec()

		b, err := book.Query("id", "author").
			Where(squirrel.Eq{"id": 5}).
			CollectOne(ctx, db)
		require.NoError(t, err)
		assert.Nil(t, b.Author)
	})

	t.Run("has many without children binds an empty slice", func(t *testing.T) {
		sq.Insert("authors").Values(3, "Nobody", "").Exec()
		defer sq.Delete("authors").Where(squirrel.Eq{"id": 3}).Exec()

		a, err := author.Query("id", "books").
			Where(squirrel.Eq{"id": 3}).
			CollectOne(ctx, db)
		require.NoError(t, err)
		assert.NotNil(t, a.Books)
		assert.Empty(t, a.Books)
	})

	t.Run("automatically select fields required for relation", func(t *testing.T) {
		authors, err := author.Query("books.name").Collect(ctx, db)
		require.NoError(t, err)

		require.Len(t, authors, 2)
		require.Len(t, authors[0].Books, 2)
		require.Len(t, authors[1].Books, 2)

		assert.NotEmpty(t, authors[0].ID)
		assert.NotEmpty(t, authors[0].Books[0].AuthorID)
		assert.NotEmpty(t, authors[0].Books[0].Name)
		assert.Empty(t, authors[0].Books[0].ID)
	})

	t.Run("CollectOne should return one item", func(t *testing.T) {
		a, err := author.Query().
			ModifyQuery(func(q relational.Q, table string) relational.Q { return q.Where("id = ?", 2) }).
			CollectOne(ctx, db)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, 2, a.ID)
		assert.Equal(t, "Madonna", a.Name)
		assert.Empty(t, a.Books)
	})

	t.Run("CollectOne should error on many returns", func(t *testing.T) {
		a, err := author.Query().CollectOne(ctx, db)
		assert.ErrorIs(t, err, relational.ErrTooManyResults)
		assert.Nil(t, a)
	})

	t.Run("CollectOne should error on no returns", func(t *testing.T) {
		a, err := author.Query().
			ModifyQuery(func(q relational.Q, table string) relational.Q { return q.Where("false") }).
			CollectOne(ctx, db)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, a)
	})
}

func TestQueryMods(t *testing.T) {
	t.Run("col", func(t *testing.T) {
		q := relational.Col("id")(squirrel.Select(), "table")
		queryString, _ := q.MustSql()
		assert.Equal(t, "SELECT table.id", queryString)
	})

	t.Run("col without table", func(t *testing.T) {
		q := relational.Col("id")(squirrel.Select(), "")
		queryString, _ := q.MustSql()
		assert.Equal(t, "SELECT id", queryString)
	})

	t.Run("where qualifies columns", func(t *testing.T) {
		q := relational.Where(squirrel.Eq{"id": 1})(squirrel.Select("*").From("books"), "books")
		queryString, args := q.MustSql()
		assert.Equal(t, "SELECT * FROM books WHERE books.id = ?", queryString)
		assert.Equal(t, []any{1}, args)
	})

	t.Run("order by", func(t *testing.T) {
		q := relational.OrderBy("id")(squirrel.Select("*").From("books"), "books")
		queryString, _ := q.MustSql()
		assert.Equal(t, "SELECT * FROM books ORDER BY books.id", queryString)
	})
}
