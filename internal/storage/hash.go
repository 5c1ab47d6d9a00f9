package storage

import (
	"fmt"

	"github.com/minio/highwayhash"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Fingerprint returns a short stable hash of data in hex form.
func Fingerprint(data []byte) (string, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return "", err
	}

	if _, err := hash.Write(data); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", hash.Sum64()), nil
}
