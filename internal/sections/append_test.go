package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

func TestAppend(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		marker   string
		text     string
		expected string
	}{
		{
			name:     "section followed by another marker",
			raw:      "[A]\nfoo\n\n[B]\nbar\n",
			marker:   "A",
			text:     "baz",
			expected: "[A]\nfoo\n\nbaz\n\n[B]\nbar\n",
		},
		{
			name:     "last section",
			raw:      "[A]\nfoo\n",
			marker:   "A",
			text:     "bar",
			expected: "[A]\nfoo\n\nbar\n",
		},
		{
			name:     "empty section between markers",
			raw:      "[A]\n[B]\nbar",
			marker:   "A",
			text:     "x",
			expected: "[A]\nx\n[B]\nbar",
		},
		{
			name:     "empty section at end without newline",
			raw:      "[A]\nfoo\n[B]",
			marker:   "B",
			text:     "x",
			expected: "[A]\nfoo\n[B]\nx\n",
		},
		{
			name:     "marker given in user form",
			raw:      "[D1:DEFINITION]\nold\n",
			marker:   "[d1:definition]",
			text:     "  new fact  ",
			expected: "[D1:DEFINITION]\nold\n\nnew fact\n",
		},
		{
			name:     "body on the heading line",
			raw:      "[A] foo\n[B] bar\n",
			marker:   "A",
			text:     "baz",
			expected: "[A] foo\n\nbaz\n[B] bar\n",
		},
		{
			name:     "last section with body on the heading line",
			raw:      "[A] foo",
			marker:   "A",
			text:     "bar",
			expected: "[A] foo\n\nbar",
		},
		{
			name:     "duplicate marker targets last occurrence",
			raw:      "[A]\none\n[A]\ntwo\n",
			marker:   "A",
			text:     "three",
			expected: "[A]\none\n[A]\ntwo\n\nthree\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Append(tt.raw, tt.marker, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAppend_PreservesOtherSections(t *testing.T) {
	before, err := Parse(sampleDoc)
	require.NoError(t, err)

	updated, err := Append(sampleDoc, "D1:MECHANISTIC EXPLANATION", "The vagus nerve carries afferent signals.")
	require.NoError(t, err)

	after, err := Parse(updated)
	require.NoError(t, err)
	require.Len(t, after.Sections, len(before.Sections))

	for i := range before.Sections {
		if before.Sections[i].Marker == "D1:MECHANISTIC EXPLANATION" {
			assert.Equal(t, "The vagus nerve carries afferent signals.", after.Sections[i].Body)
			continue
		}
		assert.Equal(t, before.Sections[i], after.Sections[i])
	}
}

func TestAppend_Errors(t *testing.T) {
	_, err := Append("[A]\nfoo", "B", "text")
	assert.ErrorIs(t, err, domain.ErrMarkerNotFound)

	_, err = Append("[A]\nfoo", "A", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Append("[A]\nfoo", "A", "sneaky\n[B]\nsection")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Append("[A]\nfoo", "A", "sneaky\n[B] section")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
