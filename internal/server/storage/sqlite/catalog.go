package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/storage"
)

var _ storage.Storage = (*Storage)(nil)

// CreateService stores a new service
func (s *Storage) CreateService(ctx context.Context, service *models.Service) error {
	query := `
		INSERT INTO services (id, title_en, title_ar, description_en, description_ar, img, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		service.ID,
		service.TitleEN,
		service.TitleAR,
		service.DescriptionEN,
		service.DescriptionAR,
		service.Image,
		service.CreatedAt,
		service.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert service: %w", err)
	}

	return nil
}

// ListServices returns all services, newest first
func (s *Storage) ListServices(ctx context.Context) ([]*models.Service, error) {
	query := `
		SELECT id, title_en, title_ar, description_en, description_ar, img, created_at, updated_at
		FROM services
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	services := make([]*models.Service, 0)
	for rows.Next() {
		service := &models.Service{}
		if err := rows.Scan(
			&service.ID,
			&service.TitleEN,
			&service.TitleAR,
			&service.DescriptionEN,
			&service.DescriptionAR,
			&service.Image,
			&service.CreatedAt,
			&service.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return services, nil
}

// DeleteService removes a service and returns the deleted record
func (s *Storage) DeleteService(ctx context.Context, id string) (*models.Service, error) {
	query := `
		DELETE FROM services WHERE id = ?
		RETURNING id, title_en, title_ar, description_en, description_ar, img, created_at, updated_at
	`

	service := &models.Service{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&service.ID,
		&service.TitleEN,
		&service.TitleAR,
		&service.DescriptionEN,
		&service.DescriptionAR,
		&service.Image,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete service: %w", err)
	}

	return service, nil
}

const mediaColumns = `id, title_en, title_ar, description_en, description_ar, media_key, media_type, mime_type, size, uploaded_by, created_at, updated_at`

// CreateMedia stores a new media record
func (s *Storage) CreateMedia(ctx context.Context, media *models.Media) error {
	query := `
		INSERT INTO media (` + mediaColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var uploadedBy sql.NullString
	if media.UploadedBy != "" {
		uploadedBy = sql.NullString{String: media.UploadedBy, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		media.ID,
		media.TitleEN,
		media.TitleAR,
		media.DescriptionEN,
		media.DescriptionAR,
		media.MediaKey,
		string(media.MediaType),
		media.MimeType,
		media.Size,
		uploadedBy,
		media.CreatedAt,
		media.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}

	return nil
}

// ListMedia returns all media records, newest first
func (s *Storage) ListMedia(ctx context.Context) ([]*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]*models.Media, 0)
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, media)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// DeleteMedia removes a media record and returns the deleted record
func (s *Storage) DeleteMedia(ctx context.Context, id string) (*models.Media, error) {
	query := `DELETE FROM media WHERE id = ? RETURNING ` + mediaColumns

	media, err := scanMedia(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return media, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(row scanner) (*models.Media, error) {
	media := &models.Media{}
	var (
		mediaType  string
		uploadedBy sql.NullString
	)

	err := row.Scan(
		&media.ID,
		&media.TitleEN,
		&media.TitleAR,
		&media.DescriptionEN,
		&media.DescriptionAR,
		&media.MediaKey,
		&mediaType,
		&media.MimeType,
		&media.Size,
		&uploadedBy,
		&media.CreatedAt,
		&media.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan media: %w", err)
	}

	media.MediaType = models.MediaType(mediaType)
	media.UploadedBy = uploadedBy.String

	return media, nil
}

// CreateQuote stores a new quote request
func (s *Storage) CreateQuote(ctx context.Context, quote *models.QuoteRequest) error {
	query := `
		INSERT INTO quote_requests (id, name, phone, email, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		quote.ID,
		quote.Name,
		quote.Phone,
		quote.Email,
		quote.Message,
		quote.CreatedAt,
		quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote request: %w", err)
	}

	return nil
}

// ListQuotes returns all quote requests, newest first
func (s *Storage) ListQuotes(ctx context.Context) ([]*models.QuoteRequest, error) {
	query := `
		SELECT id, name, phone, email, message, created_at, updated_at
		FROM quote_requests
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote requests: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	quotes := make([]*models.QuoteRequest, 0)
	for rows.Next() {
		quote := &models.QuoteRequest{}
		if err := rows.Scan(
			&quote.ID,
			&quote.Name,
			&quote.Phone,
			&quote.Email,
			&quote.Message,
			&quote.CreatedAt,
			&quote.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote request: %w", err)
		}
		quotes = append(quotes, quote)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return quotes, nil
}

// DeleteQuote removes a quote request
func (s *Storage) DeleteQuote(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quote_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote request: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
