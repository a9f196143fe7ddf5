package badgerkv_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollex.nl/bookshelf/store/badgerkv"
)

func TestOrderSurvivesByteOrdering(t *testing.T) {
	ctx := context.Background()
	s, err := badgerkv.Open()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// 256 ids cross a byte boundary in the key encoding.
	for i := 1; i <= 300; i++ {
		book, err := s.AppendBook(ctx, fmt.Sprintf("book %d", i), 1)
		require.NoError(t, err)
		require.Equal(t, i, book.ID)
	}

	books, err := s.Books(ctx)
	require.NoError(t, err)
	require.Len(t, books, 300)
	for i, book := range books {
		assert.Equal(t, i+1, book.ID)
	}
}
