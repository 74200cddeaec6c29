// Package config loads, normalizes, and validates seqid configuration data.
//
// It supplies defaults equal to seqid.DefaultConfig, expands user paths
// (including tilde shortcuts) and reads TOML files. Engine settings are
// validated with the same rules the engine applies, so a file that loads
// here always builds an engine.
package config
