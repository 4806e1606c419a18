package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/rockbridge/internal/server/config"
	"github.com/iudanet/rockbridge/internal/server/mailer"
	"github.com/iudanet/rockbridge/internal/server/storage"
	"github.com/iudanet/rockbridge/internal/server/storage/boltdb"
	"github.com/iudanet/rockbridge/internal/server/storage/sqlite"
	"github.com/iudanet/rockbridge/internal/server/upload"
)

// OpenStorage открывает хранилище выбранного драйвера. Для SQLite применяются миграции.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		store, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, nil
	case config.StorageBolt:
		store, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open bolt storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// newBlobStore создает хранилище загруженных файлов
func newBlobStore(ctx context.Context, cfg config.UploadsConfig) (upload.BlobStore, error) {
	switch cfg.Driver {
	case config.UploadsLocal:
		store, err := upload.NewLocalStore(cfg.Dir, cfg.PublicBase)
		if err != nil {
			return nil, fmt.Errorf("create local upload store: %w", err)
		}
		return store, nil
	case config.UploadsS3:
		store, err := upload.NewS3Store(ctx, upload.S3Config{
			Bucket:     cfg.S3.Bucket,
			Region:     cfg.S3.Region,
			Endpoint:   cfg.S3.Endpoint,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			PublicBase: cfg.S3.PublicBase,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 upload store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown uploads driver %q", cfg.Driver)
	}
}

// newNotifier создает отправителя писем. Драйвер log только пишет письма в лог.
func newNotifier(cfg config.MailConfig, logger *slog.Logger) (mailer.Notifier, error) {
	switch cfg.Driver {
	case config.MailSMTP:
		notifier, err := mailer.NewSMTPNotifier(mailer.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
			FromName: cfg.FromName,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create smtp notifier: %w", err)
		}
		return notifier, nil
	case config.MailLog:
		return mailer.NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}
