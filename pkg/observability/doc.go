/*
Package observability provides tools for monitoring journeys.

It turns engine lifecycle hooks into Prometheus metrics and structured log records,
and counts cache hits and misses of the cached source.
*/
package observability
