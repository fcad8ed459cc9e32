// Package quotes provides the philosophy quotes shown when a journey reaches its target.
package quotes

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"sync"

	"gopkg.in/yaml.v3"
)

// Quote is a short citation and its author.
type Quote struct {
	Text   string `yaml:"text" json:"text"`
	Author string `yaml:"author" json:"author"`
}

// String formats the quote for terminals.
func (q Quote) String() string {
	return fmt.Sprintf("%q (%s)", q.Text, q.Author)
}

//go:embed quotes.yaml
var quotesYAML []byte

var (
	loadOnce sync.Once
	all      []Quote
	loadErr  error
)

// Parse decodes a YAML list of quotes.
func Parse(data []byte) ([]Quote, error) {
	var qs []Quote
	if err := yaml.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("failed to parse quotes: %w", err)
	}
	for i, q := range qs {
		if q.Text == "" || q.Author == "" {
			return nil, fmt.Errorf("quote %d is missing text or author", i)
		}
	}
	return qs, nil
}

// All returns the built-in quotes.
func All() []Quote {
	loadOnce.Do(func() {
		all, loadErr = Parse(quotesYAML)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return append([]Quote(nil), all...)
}

// Random returns a built-in quote picked uniformly.
func Random() Quote {
	qs := All()
	return qs[rand.IntN(len(qs))]
}
