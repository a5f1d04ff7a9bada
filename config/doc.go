// Package config loads and validates the debateflow configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variable overrides with the DEBATEFLOW prefix. A loaded
// configuration is validated before use; a pool smaller than one judge plus
// three solvers is rejected outright.
package config
