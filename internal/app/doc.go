// Package app provides the application service layer.
//
// Orchestrates use cases: scenario submission, browsing, search, discussion,
// contact messages and voting. Sits between HTTP handlers and domain
// repositories. Depends on domain interfaces, not concrete implementations.
package app
