// Package graph exposes the bookshelf service as a GraphQL schema.
package graph

import (
	"github.com/graphql-go/graphql"
	"pollex.nl/bookshelf"
)

// NewSchema builds the library schema. Resolvers call into svc; they run in
// the request goroutine, one field at a time.
func NewSchema(svc *bookshelf.Service) (graphql.Schema, error) {
	r := &resolvers{svc: svc}

	var authorType, bookType *graphql.Object

	// Author and Book reference each other, so both field sets are thunks.
	authorType = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Author",
		Description: "Authors who have written books",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"books": &graphql.Field{
					Type:    graphql.NewList(bookType),
					Resolve: r.authorBooks,
				},
			}
		}),
	})

	bookType = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Book",
		Description: "This represents a book written by an author",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"name":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"authorId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"author": &graphql.Field{
					Type:    authorType,
					Resolve: r.bookAuthor,
				},
			}
		}),
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Query",
		Description: "Root Query",
		Fields: graphql.Fields{
			"book": &graphql.Field{
				Type:        bookType,
				Description: "A single book",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.book,
			},
			"books": &graphql.Field{
				Type:        graphql.NewList(bookType),
				Description: "List of books",
				Resolve:     r.books,
			},
			"author": &graphql.Field{
				Type:        authorType,
				Description: "A single author",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.author,
			},
			"authors": &graphql.Field{
				Type:        graphql.NewList(authorType),
				Description: "List of authors",
				Resolve:     r.authors,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Mutation",
		Description: "Root Mutation",
		Fields: graphql.Fields{
			"addBook": &graphql.Field{
				Type:        bookType,
				Description: "Add a book",
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"authorId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.addBook,
			},
			"editBook": &graphql.Field{
				Type:        bookType,
				Description: "Edit book details",
				Args: graphql.FieldConfigArgument{
					"id":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"name":     &graphql.ArgumentConfig{Type: graphql.String},
					"authorId": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.editBook,
			},
			"addAuthor": &graphql.Field{
				Type:        authorType,
				Description: "Add an author",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.addAuthor,
			},
			"editAuthor": &graphql.Field{
				Type:        authorType,
				Description: "Edit an author",
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"name": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.editAuthor,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// NewHelloSchema builds the Hello World schema: { hello } answers "World".
func NewHelloSchema() (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "HelloWorld",
			Fields: graphql.Fields{
				"hello": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (any, error) {
						return "World", nil
					},
				},
			},
		}),
	})
}
