// Package config loads and validates application configuration from
// SLOVAR_-prefixed environment variables.
package config
