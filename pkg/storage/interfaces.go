package storage

import "io"

type StorageService interface {
	Upload(key string, reader io.Reader) error
	Download(key string) ([]byte, error)
	Delete(key string) error
	GetPublicURL(key string) string
}
