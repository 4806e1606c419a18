package upload

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"slices"
	"strings"

	"github.com/iudanet/rockbridge/internal/models"
)

// Default size limits.
const (
	DefaultImageMaxBytes = 20 << 20
	DefaultMediaMaxBytes = 100 << 20
)

var (
	// ErrUnsupportedType is returned for files outside the policy's allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned for files above the policy's size limit.
	ErrTooLarge = errors.New("file too large")
)

// Policy restricts the files accepted for one kind of upload.
type Policy struct {
	// Extensions are accepted regardless of content type. Lower case, no dot.
	Extensions []string
	// ContentTypes are accepted regardless of extension.
	ContentTypes []string
	// Message explains the allow-list to clients.
	Message  string
	MaxBytes int64
}

// ImagePolicy accepts service images.
func ImagePolicy(maxBytes int64) Policy {
	if maxBytes <= 0 {
		maxBytes = DefaultImageMaxBytes
	}
	return Policy{
		Extensions:   []string{"jpeg", "jpg", "png", "gif"},
		ContentTypes: []string{"image/jpeg", "image/jpg", "image/png", "image/gif"},
		Message:      "Only image files are allowed (jpeg, jpg, png, gif)",
		MaxBytes:     maxBytes,
	}
}

// MediaPolicy accepts media library images and videos. Only the content type is checked.
func MediaPolicy(maxBytes int64) Policy {
	if maxBytes <= 0 {
		maxBytes = DefaultMediaMaxBytes
	}
	return Policy{
		ContentTypes: []string{
			"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp",
			"video/mp4", "video/webm", "video/quicktime", "video/x-msvideo", "video/mpeg",
		},
		Message:  "Unsupported file type. Allowed: images and common video types",
		MaxBytes: maxBytes,
	}
}

// Check validates a file by name, declared content type and size.
func (p Policy) Check(filename, contentType string, size int64) error {
	if size > p.MaxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, size, p.MaxBytes)
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext != "" && slices.Contains(p.Extensions, ext) {
		return nil
	}
	if slices.Contains(p.ContentTypes, NormalizeContentType(contentType)) {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedType, p.Message)
}

// typeExtensions lists the extensions a stored file may carry for each accepted
// content type. The first one is used when the client's extension does not fit.
var typeExtensions = map[string][]string{
	"image/jpeg":      {"jpg", "jpeg"},
	"image/jpg":       {"jpg", "jpeg"},
	"image/png":       {"png"},
	"image/gif":       {"gif"},
	"image/webp":      {"webp"},
	"video/mp4":       {"mp4"},
	"video/webm":      {"webm"},
	"video/quicktime": {"mov"},
	"video/x-msvideo": {"avi"},
	"video/mpeg":      {"mpeg", "mpg"},
}

// extensionTypes is the reverse of typeExtensions for files accepted by extension.
var extensionTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// Stored returns the extension (with dot) and content type a file accepted by Check
// is stored with. Both are derived from what the policy accepted, so a file named
// "x.html" sent as image/png is stored as ".png" and never served as HTML.
func (p Policy) Stored(filename, contentType string) (string, string) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	contentType = NormalizeContentType(contentType)

	if slices.Contains(p.ContentTypes, contentType) {
		allowed := typeExtensions[contentType]
		switch {
		case slices.Contains(allowed, ext):
			return "." + ext, contentType
		case len(allowed) > 0:
			return "." + allowed[0], contentType
		default:
			return "", contentType
		}
	}

	if slices.Contains(p.Extensions, ext) {
		if ct, ok := extensionTypes[ext]; ok {
			return "." + ext, ct
		}
		return "." + ext, "application/octet-stream"
	}

	return "", "application/octet-stream"
}

// NormalizeContentType strips parameters and lower-cases a Content-Type value.
func NormalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// MediaTypeOf derives the library media type from a content type.
func MediaTypeOf(contentType string) models.MediaType {
	if strings.HasPrefix(NormalizeContentType(contentType), "video/") {
		return models.MediaTypeVideo
	}
	return models.MediaTypeImage
}
