// Package server manages the lifecycle of semcache's HTTP listeners: the
// cache API server and the Prometheus metrics server. A Manager owns one
// http.Server, starts it non-blocking, surfaces asynchronous serve errors,
// and shuts it down gracefully on signal.
package server
