// Package storage provides blob storage for CVs, import files, and call
// recordings. The production backend is any S3-compatible object store
// (AWS S3 or MinIO); object keys are always prefixed with the tenant ID
// so tenants never share a key space.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrObjectNotFound indicates the requested key does not exist in the bucket.
var ErrObjectNotFound = errors.New("storage: object not found")

// BlobStore abstracts the object store so services and pipeline stages can be
// tested without a running S3 endpoint.
type BlobStore interface {
	// Upload writes data under key, overwriting any existing object.
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// Download returns the full contents of the object at key. Returns
	// ErrObjectNotFound if the key does not exist.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// CVKey returns the object key for a candidate's uploaded CV.
func CVKey(tenantID, candidateID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/cv/%s/%s", tenantID, candidateID, filename)
}

// ImportKey returns the object key for an uploaded bulk import file.
func ImportKey(tenantID, importID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/imports/%s/%s", tenantID, importID, filename)
}

// RecordingKey returns the object key for a call recording. Recordings are
// grouped under the interview so re-recorded calls never collide.
func RecordingKey(tenantID, interviewID uuid.UUID, recordingID string) string {
	return fmt.Sprintf("%s/%s/%s.wav", tenantID, interviewID, recordingID)
}

// ReportKey returns the object key for an interview's rendered report.
func ReportKey(tenantID, interviewID uuid.UUID) string {
	return fmt.Sprintf("%s/reports/%s.txt", tenantID, interviewID)
}
