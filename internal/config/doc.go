// Package config loads, normalizes, and validates curator configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CURATOR_LIBRARY_DIR. The library root has no baked-in default: every
// component that writes into the library receives it from here.
package config
