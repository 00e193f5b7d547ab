package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

func TestDocumentSource_FetchAndAppend(t *testing.T) {
	doc := NewDocumentSource("[D1:DEFINITION]\nFirst.\n\n[D2:DEFINITION]\n")
	ctx := context.Background()

	require.NoError(t, doc.Append(ctx, "D1:DEFINITION", "Second."))

	text, err := doc.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[D1:DEFINITION]\nFirst.\n\nSecond.\n\n[D2:DEFINITION]\n", text)
	assert.Equal(t, 1, doc.Appends())
}

func TestDocumentSource_Append_UnknownMarker(t *testing.T) {
	doc := NewDocumentSource("[D1:DEFINITION]\nFirst.\n")

	err := doc.Append(context.Background(), "D9:NOPE", "x")
	assert.ErrorIs(t, err, domain.ErrMarkerNotFound)
	assert.Equal(t, "[D1:DEFINITION]\nFirst.\n", doc.Text())
	assert.Equal(t, 0, doc.Appends())
}

func TestDocumentSource_InjectedErrors(t *testing.T) {
	doc := NewDocumentSource("[A]\n")
	doc.FetchErr = errors.New("offline")
	doc.AppendErr = errors.New("read-only")

	_, err := doc.Fetch(context.Background())
	assert.EqualError(t, err, "offline")
	assert.EqualError(t, doc.Append(context.Background(), "A", "x"), "read-only")
	assert.Equal(t, "[A]\n", doc.Text())
}
