package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/rockbridge/internal/server/upload"
)

const (
	// multipartMemory часть формы, которая держится в памяти; остальное уходит во временные файлы
	multipartMemory = 8 << 20
	// multipartOverhead запас на текстовые поля формы сверх лимита файла
	multipartOverhead = 1 << 20
)

// storedFile описывает файл, сохраненный в blob store
type storedFile struct {
	key         string
	contentType string
	size        int64
}

// fileUpload описывает поле формы с файлом и правила его приема
type fileUpload struct {
	blobs      upload.BlobStore
	field      string
	prefix     string
	missingMsg string
	failMsg    string
	policy     upload.Policy
}

// parseMultipart ограничивает размер тела и разбирает multipart форму
func (h responder) parseMultipart(w http.ResponseWriter, r *http.Request, maxFileBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.sendError(w, "File too large", http.StatusRequestEntityTooLarge)
			return false
		}
		h.logger.WarnContext(r.Context(), "failed to parse multipart form", slog.Any("error", err))
		h.sendError(w, "invalid multipart form", http.StatusBadRequest)
		return false
	}
	return true
}

// storeFile проверяет файл из формы и сохраняет его под новым ключом
func (h responder) storeFile(w http.ResponseWriter, r *http.Request, u fileUpload) (*storedFile, bool) {
	file, header, err := r.FormFile(u.field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.sendError(w, u.missingMsg, http.StatusBadRequest)
			return nil, false
		}
		h.sendError(w, "invalid multipart form", http.StatusBadRequest)
		return nil, false
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := upload.NormalizeContentType(header.Header.Get("Content-Type"))
	if err := u.policy.Check(header.Filename, contentType, header.Size); err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			h.sendError(w, "File too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		h.logger.WarnContext(r.Context(), "rejected upload",
			slog.String("filename", header.Filename),
			slog.String("content_type", contentType))
		h.sendError(w, u.policy.Message, http.StatusBadRequest)
		return nil, false
	}

	ext, storedType := u.policy.Stored(header.Filename, contentType)
	key := upload.NewKey(u.prefix, header.Filename, ext)
	if err := u.blobs.Put(r.Context(), key, file, header.Size, storedType); err != nil {
		h.logError(r, "failed to store upload", err)
		h.sendError(w, u.failMsg, http.StatusInternalServerError)
		return nil, false
	}

	return &storedFile{key: key, contentType: storedType, size: header.Size}, true
}

// removeBlob удаляет файл по ключу; ошибка только логируется
func (h responder) removeBlob(r *http.Request, blobs upload.BlobStore, key string) {
	if key == "" || upload.IsAbsoluteURL(key) {
		return
	}
	if err := blobs.Delete(r.Context(), strings.TrimPrefix(key, "/")); err != nil {
		h.logger.WarnContext(r.Context(), "could not delete stored file",
			slog.String("key", key),
			slog.Any("error", err))
	}
}

// publicURL превращает ключ в ссылку для клиента.
// Относительные ссылки дополняются схемой и хостом запроса.
func publicURL(r *http.Request, blobs upload.BlobStore, key string) string {
	if key == "" {
		return ""
	}

	u := key
	if !strings.HasPrefix(key, "/") {
		u = blobs.URL(key)
	}
	if upload.IsAbsoluteURL(u) {
		return u
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + u
}
