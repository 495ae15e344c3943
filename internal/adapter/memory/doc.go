// Package memory provides single-instance implementations of the vote state,
// debounce and tag cache contracts for deployments without Redis.
package memory
