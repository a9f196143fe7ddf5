package graph

import (
	"errors"

	"github.com/graphql-go/graphql"
	"pollex.nl/bookshelf"
)

var errMalformedSource = errors.New("malformed source")

type resolvers struct {
	svc *bookshelf.Service
}

// =================
// Query
// =================

func (r *resolvers) book(p graphql.ResolveParams) (any, error) {
	id, ok := p.Args["id"].(int)
	if !ok {
		return nil, nil
	}
	return nullable(r.svc.Book(p.Context, id))
}

func (r *resolvers) books(p graphql.ResolveParams) (any, error) {
	return r.svc.Books(p.Context)
}

func (r *resolvers) author(p graphql.ResolveParams) (any, error) {
	id, ok := p.Args["id"].(int)
	if !ok {
		return nil, nil
	}
	return nullable(r.svc.Author(p.Context, id))
}

func (r *resolvers) authors(p graphql.ResolveParams) (any, error) {
	return r.svc.Authors(p.Context)
}

// =================
// Relations
// =================

func (r *resolvers) authorBooks(p graphql.ResolveParams) (any, error) {
	author, ok := p.Source.(*bookshelf.Author)
	if !ok {
		return nil, errMalformedSource
	}
	return r.svc.Resolver().BooksByAuthor(p.Context, author.ID)
}

func (r *resolvers) bookAuthor(p graphql.ResolveParams) (any, error) {
	book, ok := p.Source.(*bookshelf.Book)
	if !ok {
		return nil, errMalformedSource
	}
	return nullable(r.svc.Resolver().AuthorOfBook(p.Context, book))
}

// =================
// Mutation
// =================

func (r *resolvers) addBook(p graphql.ResolveParams) (any, error) {
	name, _ := p.Args["name"].(string)
	authorID, _ := p.Args["authorId"].(int)
	return nullable(r.svc.AddBook(p.Context, name, authorID))
}

// Edits treat an explicit null like an omitted argument: Book and Author
// fields are non-null, so there is nothing to clear.
func (r *resolvers) editBook(p graphql.ResolveParams) (any, error) {
	in := bookshelf.EditBookInput{ID: p.Args["id"].(int)}
	if name, ok := p.Args["name"].(string); ok {
		in.Name = &name
	}
	if authorID, ok := p.Args["authorId"].(int); ok {
		in.AuthorID = &authorID
	}
	return nullable(r.svc.EditBook(p.Context, in))
}

func (r *resolvers) addAuthor(p graphql.ResolveParams) (any, error) {
	name, _ := p.Args["name"].(string)
	return nullable(r.svc.AddAuthor(p.Context, name))
}

func (r *resolvers) editAuthor(p graphql.ResolveParams) (any, error) {
	in := bookshelf.EditAuthorInput{ID: p.Args["id"].(int)}
	if name, ok := p.Args["name"].(string); ok {
		in.Name = &name
	}
	return nullable(r.svc.EditAuthor(p.Context, in))
}

// nullable turns a nil record into an untyped nil so the field resolves to null.
func nullable[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}
