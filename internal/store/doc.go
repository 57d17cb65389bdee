// Package store defines interfaces for data persistence operations,
// including the atomic claim the worker loop is built on. These
// interfaces abstract the underlying storage so the pipeline remains
// independent of specific database technologies.
package store
