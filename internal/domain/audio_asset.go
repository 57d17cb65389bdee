package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for AudioAsset
var (
	ErrEmptyAssetID          = errors.New("audio asset ID cannot be empty")
	ErrEmptyAssetStoragePath = errors.New("audio asset storage path cannot be empty")
	ErrEmptyAssetData        = errors.New("audio asset data cannot be empty")
)

// AudioAsset holds the raw bytes of an uploaded recording together with
// the metadata the transcriber needs. Assets are written by the upload
// API; the worker only reads them.
type AudioAsset struct {
	ID          uuid.UUID `json:"id"`
	StoragePath string    `json:"storage_path"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks if the AudioAsset has valid data.
func (a *AudioAsset) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAssetID
	}

	if a.StoragePath == "" {
		return ErrEmptyAssetStoragePath
	}

	if len(a.Data) == 0 {
		return ErrEmptyAssetData
	}

	return nil
}
