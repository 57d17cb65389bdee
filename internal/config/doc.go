// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe access to the settings the worker needs (store, email
// provider, transcription, loop tuning) while keeping configuration
// details separate from pipeline logic.
package config
