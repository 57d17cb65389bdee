// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in the internal/store package, including the
// lock-skipping batch claim and the token-gated terminal writes that
// make concurrent workers safe.
package postgres
