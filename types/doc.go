// Package types defines the shared request, response and error types used
// across semcache. It has no dependencies on other semcache packages so that
// every layer (store, embedding, cache, api) can import it freely.
package types
