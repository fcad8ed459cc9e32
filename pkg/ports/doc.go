/*
Package ports defines the driven ports (interfaces) for the Wikisophy engine.

These interfaces decouple the journey core from the encyclopedia it walks and from the
infrastructure around it, so the same engine runs against Wikipedia, an in-memory fake,
or a cached decorator backed by Redis.

# Key Interfaces

  - MarkupFetcher: Retrieves the lead-section markup of an article.
  - PreviewFetcher: Retrieves the summary (title, extract, thumbnail) of an article.
  - Searcher and RandomPicker: Used when choosing the starting article of a journey.
  - Source: The union of the four above, implemented by encyclopedia adapters.
  - Cache: Byte-oriented key/value storage with expiration, used by the cached Source.
  - DistributedLocker: Coordinates cache fills across replicas.
*/
package ports
