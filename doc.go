/*
Package wikisophy traces "first link" journeys through Wikipedia: starting from any
article, it repeatedly follows the first qualifying link of the lead section until it
reaches Philosophy (success), revisits an article (cycle), finds no link (dead end),
hits a transient fetch failure (error), runs out of steps, or is cancelled.

# Concept

A journey is a small state machine (IDLE, RUNNING, FINISHED) owning an ordered path of
articles. Every step resolves the current article into its next one: the lead markup is
fetched, the first qualifying link is extracted, and a preview of the linked article is
fetched. The encyclopedia itself is a driven port (ports.Source), so the engine runs
equally against Wikipedia, a cached decorator, or an in-memory fake.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/wikisophy"
		"github.com/aretw0/wikisophy/pkg/adapters/wikipedia"
	)

	func main() {
		eng, err := wikisophy.New(wikipedia.New())
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		journey, err := eng.Begin(ctx, "Ancient Greek")
		if err != nil {
			log.Fatal(err)
		}

		state, err := journey.Run(ctx)
		if err != nil {
			log.Fatal(err)
		}
		for i, article := range state.Path {
			fmt.Printf("%2d. %s\n", i, article.Title)
		}
		fmt.Println("outcome:", state.Outcome)
	}

# Stepping Rules

A link qualifies when it points at a main-namespace article (/wiki/ without a colon),
is outside tables, footnotes, infoboxes and similar blocks, is not inside parentheses,
and is not italicized. Arrival at the target is checked before fetching, so reaching
Philosophy costs no extra request. Titles are compared as exact strings for cycle
detection; two redirects to the same article are treated as different titles.

# Adapters

  - pkg/adapters/wikipedia: Action and REST API client.
  - pkg/adapters/cached: caching decorator over a memory, file or Redis cache.
  - pkg/adapters/http: JSON API with server-side journeys and SSE updates.
  - pkg/adapters/mcp: Model Context Protocol tools.
*/
package wikisophy
