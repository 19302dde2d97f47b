// Command semcached runs the semcache daemon: a hybrid exact/semantic
// response cache that sits in front of an LLM gateway.
//
// Usage:
//
//	semcached serve                       # start the daemon
//	semcached serve --config config.yaml  # with a config file
//	semcached version                     # print version information
//	semcached health                      # probe a running daemon
//
// Configuration is loaded from built-in defaults, then the YAML file, then
// SEMCACHE_* environment variables, in increasing precedence.
package main
