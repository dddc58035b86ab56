// Package config loads the service configuration.
//
// Values are resolved in three layers, later layers winning:
//
//  1. built-in defaults (see Default)
//  2. an optional YAML file; ${VAR} references are expanded from the environment
//  3. environment variables, read from the process and from a .env file
//
// The process environment overrides the .env file. Durations in YAML are
// written as Go duration strings ("45s"); AGENT_MAX_SECONDS is a number of
// seconds.
package config
