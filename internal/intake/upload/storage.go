package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"startup-intake/internal/common/logger"
	"startup-intake/internal/common/metrics"
)

// ObjectPutter writes one object and returns its public URL.
type ObjectPutter interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Storage is the Uploader backed by an object store.
type Storage struct {
	putter   ObjectPutter
	maxBytes int64
	now      func() time.Time
	logger   logger.Logger
}

func NewStorage(putter ObjectPutter, maxBytes int64, log logger.Logger) *Storage {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	return &Storage{
		putter:   putter,
		maxBytes: maxBytes,
		now:      time.Now,
		logger:   log.WithFields(map[string]interface{}{"component": "upload"}),
	}
}

func (s *Storage) Upload(ctx context.Context, file *File, folder string) (*StoredObject, error) {
	if err := Check(file, s.maxBytes); err != nil {
		metrics.DocumentUploads.WithLabelValues(folder, "rejected").Inc()
		return nil, err
	}

	contentType, _ := ContentTypeFor(file.FileName)
	key := ObjectKey(folder, file.FileName, s.now())

	body, err := file.Open()
	if err != nil {
		metrics.DocumentUploads.WithLabelValues(folder, "error").Inc()
		return nil, fmt.Errorf("open %s: %w", file.FileName, err)
	}
	defer body.Close()

	url, err := s.putter.PutObject(ctx, key, contentType, body, file.Size)
	if err != nil {
		metrics.DocumentUploads.WithLabelValues(folder, "error").Inc()
		s.logger.Error("object upload failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("put %s: %w", key, err)
	}

	metrics.DocumentUploads.WithLabelValues(folder, "stored").Inc()
	s.logger.Info("document stored", map[string]interface{}{
		"key":  key,
		"size": file.Size,
	})
	return &StoredObject{
		URL:         url,
		Key:         key,
		FileName:    file.FileName,
		ContentType: contentType,
		Size:        file.Size,
	}, nil
}
