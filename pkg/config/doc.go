// Package config loads client configuration from YAML files and the
// environment.
//
// Configuration is resolved in three layers: file values, defaults for
// anything the file omits, then environment variable overrides
// (ROUTEWAY_API_KEY, ROUTEWAY_BASE_URL, ROUTEWAY_TIMEOUT,
// ROUTEWAY_MAX_RETRIES), with the environment always winning.
//
//	cfg, err := config.Load("routeway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A Watcher can observe the file and invoke a reload callback on
// change, for applications that rebuild their client when the file is
// edited. Client instances themselves are immutable; a reload produces
// a new client, never a mutated one.
package config
