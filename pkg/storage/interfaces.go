package storage

import "io"

type StorageService interface {
	Upload(key string, reader io.Reader, contentType string) (string, error)
	Delete(key string) error
}
