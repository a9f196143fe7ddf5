// Package bookshelf holds the books/authors domain: the entities, the store
// contract they live in, the resolver deriving their relations and the
// service exposing queries and mutations over them.
package bookshelf

type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	AuthorID int    `json:"authorId"`
}

// EditBookInput is a partial update. Nil fields are left untouched.
type EditBookInput struct {
	ID       int
	Name     *string
	AuthorID *int
}

// EditAuthorInput is a partial update. A nil Name is left untouched.
type EditAuthorInput struct {
	ID   int
	Name *string
}
