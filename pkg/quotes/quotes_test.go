package quotes_test

import (
	"testing"

	"github.com/aretw0/wikisophy/pkg/quotes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	qs := quotes.All()
	require.NotEmpty(t, qs)
	assert.Equal(t, quotes.Quote{Text: "The unexamined life is not worth living.", Author: "Socrates"}, qs[0])

	qs[0].Author = "Nobody"
	assert.Equal(t, "Socrates", quotes.All()[0].Author, "All returns a copy")
}

func TestRandom(t *testing.T) {
	known := map[quotes.Quote]bool{}
	for _, q := range quotes.All() {
		known[q] = true
	}
	for i := 0; i < 20; i++ {
		assert.True(t, known[quotes.Random()])
	}
}

func TestParse(t *testing.T) {
	qs, err := quotes.Parse([]byte("- text: Know thyself.\n  author: Delphi\n"))
	require.NoError(t, err)
	assert.Equal(t, `"Know thyself." (Delphi)`, qs[0].String())

	_, err = quotes.Parse([]byte("- text: Anonymous\n"))
	assert.Error(t, err)

	_, err = quotes.Parse([]byte("not: [a list"))
	assert.Error(t, err)
}
