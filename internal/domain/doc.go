// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (scenario.go, vote.go, tag.go, comment.go, contact.go, ...)
// hold shared types and the consumer-side contracts implemented by the adapters.
// No implementation code beyond small value helpers.
package domain
