// Package storage adapts Google Cloud Storage for the relay's blob
// surface: caregiver voice notes are downloaded from the audio bucket
// and the resulting transcripts are written back beside them.
package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// StorageAdapter implements shared.BlobStore on GCS.
type StorageAdapter struct {
	Client *storage.Client
}

// Write stores a derived text artifact (a transcript) next to the source
// object it was produced from.
func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "text/plain; charset=utf-8"
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("write %s/%s: %w", bucketName, objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close %s/%s: %w", bucketName, objectName, err)
	}
	return nil
}

// Read downloads a recorded voice note.
func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", bucketName, objectName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucketName, objectName, err)
	}
	return data, nil
}
