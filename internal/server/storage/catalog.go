package storage

import (
	"context"

	"github.com/iudanet/rockbridge/internal/models"
)

// ServiceStorage defines interface for service catalog persistence
type ServiceStorage interface {
	// CreateService stores a new service
	CreateService(ctx context.Context, service *models.Service) error

	// ListServices returns all services, newest first
	// Returns empty slice if no services found
	ListServices(ctx context.Context) ([]*models.Service, error)

	// DeleteService removes a service and returns the deleted record
	// Returns ErrNotFound if service doesn't exist
	DeleteService(ctx context.Context, id string) (*models.Service, error)
}

// MediaStorage defines interface for media library persistence
type MediaStorage interface {
	// CreateMedia stores a new media record
	CreateMedia(ctx context.Context, media *models.Media) error

	// ListMedia returns all media records, newest first
	// Returns empty slice if no media found
	ListMedia(ctx context.Context) ([]*models.Media, error)

	// DeleteMedia removes a media record and returns the deleted record
	// Returns ErrNotFound if media doesn't exist
	DeleteMedia(ctx context.Context, id string) (*models.Media, error)
}

// QuoteStorage defines interface for quote request persistence
type QuoteStorage interface {
	// CreateQuote stores a new quote request
	CreateQuote(ctx context.Context, quote *models.QuoteRequest) error

	// ListQuotes returns all quote requests, newest first
	// Returns empty slice if no quotes found
	ListQuotes(ctx context.Context) ([]*models.QuoteRequest, error)

	// DeleteQuote removes a quote request
	// Returns ErrNotFound if quote doesn't exist
	DeleteQuote(ctx context.Context, id string) error
}

// Storage is the full set of persistence operations served by a backend.
type Storage interface {
	UserStorage
	ServiceStorage
	MediaStorage
	QuoteStorage

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying database handle
	Close() error
}
