package filestorage

import (
	"mime/multipart"
)

// BlobStore defines the interface for stored thesis files
type BlobStore interface {
	// SaveFile saves a file under the storage root and returns its URL path
	SaveFile(fileHeader *multipart.FileHeader) (string, error)

	// SaveFileWithPath lets you specify a subdirectory for storing the file
	SaveFileWithPath(fileHeader *multipart.FileHeader, path string) (string, error)

	// DeleteFile removes a file from storage
	DeleteFile(filePath string) error

	// GetFullPath returns the full filesystem path for a given file URL
	GetFullPath(fileURL string) string
}
