/*
Package session keeps the live journeys of a process.

Each journey is registered under a random ID so that transports (HTTP, MCP)
can drive it across requests. Idle journeys are removed by Sweep.
*/
package session
