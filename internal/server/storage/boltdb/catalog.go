package boltdb

import (
	"context"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/rockbridge/internal/models"
	"github.com/iudanet/rockbridge/internal/server/storage"
)

var _ storage.Storage = (*Storage)(nil)

// CreateService stores a new service
func (s *Storage) CreateService(ctx context.Context, service *models.Service) error {
	return s.put(bucketServices, service.ID, service)
}

// ListServices returns all services, newest first
func (s *Storage) ListServices(ctx context.Context) ([]*models.Service, error) {
	var services []*models.Service
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		services, err = listJSON(tx, bucketServices, func(v *models.Service) time.Time { return v.CreatedAt })
		return err
	})
	return services, err
}

// DeleteService removes a service and returns the deleted record
func (s *Storage) DeleteService(ctx context.Context, id string) (*models.Service, error) {
	var service *models.Service
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		service, err = deleteJSON[models.Service](tx, bucketServices, id, storage.ErrNotFound)
		return err
	})
	return service, err
}

// CreateMedia stores a new media record
func (s *Storage) CreateMedia(ctx context.Context, media *models.Media) error {
	return s.put(bucketMedia, media.ID, media)
}

// ListMedia returns all media records, newest first
func (s *Storage) ListMedia(ctx context.Context) ([]*models.Media, error) {
	var items []*models.Media
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		items, err = listJSON(tx, bucketMedia, func(v *models.Media) time.Time { return v.CreatedAt })
		return err
	})
	return items, err
}

// DeleteMedia removes a media record and returns the deleted record
func (s *Storage) DeleteMedia(ctx context.Context, id string) (*models.Media, error) {
	var media *models.Media
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		media, err = deleteJSON[models.Media](tx, bucketMedia, id, storage.ErrNotFound)
		return err
	})
	return media, err
}

// CreateQuote stores a new quote request
func (s *Storage) CreateQuote(ctx context.Context, quote *models.QuoteRequest) error {
	return s.put(bucketQuotes, quote.ID, quote)
}

// ListQuotes returns all quote requests, newest first
func (s *Storage) ListQuotes(ctx context.Context) ([]*models.QuoteRequest, error) {
	var quotes []*models.QuoteRequest
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		quotes, err = listJSON(tx, bucketQuotes, func(v *models.QuoteRequest) time.Time { return v.CreatedAt })
		return err
	})
	return quotes, err
}

// DeleteQuote removes a quote request
func (s *Storage) DeleteQuote(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := deleteJSON[models.QuoteRequest](tx, bucketQuotes, id, storage.ErrNotFound)
		return err
	})
}

func (s *Storage) put(name []byte, id string, v any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		return putJSON(b, id, v)
	})
}
