// Package filter narrows scenario lists by tag conjunction and by free-text
// search, producing highlight spans for the matched text.
package filter
