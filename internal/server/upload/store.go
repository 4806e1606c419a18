// Package upload stores uploaded files and checks them against type and size policies.
package upload

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Key prefixes of the stored blobs.
const (
	PrefixServices = "services"
	PrefixMedia    = "media"
)

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid blob key")

// BlobStore keeps uploaded files under slash separated keys.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public location of key. It may be relative to the server root.
	URL(key string) string
}

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// IsAbsoluteURL reports whether v is an http(s) URL rather than a stored key.
func IsAbsoluteURL(v string) bool {
	return absoluteURL.MatchString(v)
}

var whitespace = regexp.MustCompile(`\s+`)

// NewKey builds a unique key under prefix from the client supplied file name.
// The name's own extension is dropped; ext (from Policy.Stored) is appended instead.
// "My Photo.PNG" with ".png" becomes "<prefix>/my-photo-<random>.png".
func NewKey(prefix, filename, ext string) string {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}
	base := strings.TrimSuffix(filename, path.Ext(filename))
	base = strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(base), "-"))
	base = strings.Trim(base, ".-")
	if base == "" {
		base = "file"
	}

	return prefix + "/" + base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + strings.ToLower(ext)
}

// cleanKey rejects keys that are empty, absolute or climb out of the root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
