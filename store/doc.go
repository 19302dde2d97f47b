// Package store abstracts the remote TTL-capable key-value store backing
// semcache. The KVStore interface covers exactly the operations the cache
// needs: point get/set with TTL, multi-key delete, pattern-based key
// enumeration, TTL inspection, and atomic hash-field increment.
//
// RedisStore is the production implementation on go-redis. Tests run it
// against miniredis.
package store
