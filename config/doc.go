// Package config provides the semcache configuration model and loader.
//
// Configuration is resolved in three layers, later layers overriding
// earlier ones: built-in defaults, an optional YAML file, and environment
// variables (SEMCACHE_* by default).
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("semcache.yaml").
//	    WithEnvPrefix("SEMCACHE").
//	    Load()
package config
