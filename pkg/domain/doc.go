/*
Package domain contains the core domain models of the Wikisophy journey tracer.

It defines the entities shared by the link extractor, the step resolver and the
journey state machine. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Article: An immutable snapshot of an article visited on a journey.
  - JourneyState: The status, visiting path and outcome of one journey.
  - StepResult: The tagged result of resolving one step (Found, NoLink, FetchFailed).
  - LifecycleHooks: Callbacks fired by the engine for observability.
*/
package domain
