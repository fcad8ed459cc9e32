// Package cli implements the commands of the wikisophy binary on top of the library.
// The cobra commands in cmd/wikisophy only parse flags and delegate here.
package cli
