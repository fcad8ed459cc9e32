package domain

// Defaults shared by the engine, the adapters and the configuration layer.
const (
	// DefaultTarget is the canonical title whose arrival ends a journey successfully.
	DefaultTarget = "philosophy"

	// DefaultMaxSteps is the number of followed links after which a journey stops.
	DefaultMaxSteps = 50

	// DefaultSearchLimit is the number of search results returned when none is requested.
	DefaultSearchLimit = 10

	// ArticlePathPrefix is the path prefix of in-wiki article links.
	ArticlePathPrefix = "/wiki/"
)
