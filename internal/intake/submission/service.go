// Package submission runs the create and edit transactions: validate, then
// upload, then merge, then persist, then announce.
package submission

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"time"

	"startup-intake/internal/common/errors"
	"startup-intake/internal/common/logger"
	"startup-intake/internal/common/metrics"
	"startup-intake/internal/intake/form"
	"startup-intake/internal/intake/policy"
	"startup-intake/internal/intake/reconcile"
	"startup-intake/internal/intake/store"
	"startup-intake/internal/intake/upload"
	"startup-intake/internal/intake/validation"
	"startup-intake/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	EventCreated = "startup_application.created"
	EventUpdated = "startup_application.updated"
	EventDeleted = "startup_application.deleted"
)

type Repository interface {
	Create(ctx context.Context, app *models.Application) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	Update(ctx context.Context, id int64, app *models.Application) error
	Delete(ctx context.Context, id int64) error
}

type EventPublisher interface {
	PublishApplicationEvent(ctx context.Context, event string, id int64) error
}

type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

type OperationRecorder interface {
	RecordOperation(ctx context.Context, operation, status string, duration time.Duration)
}

// Result is the outcome of a successful create or update.
type Result struct {
	ID            int64                 `json:"startupId"`
	Application   *models.Application   `json:"application"`
	UploadedFiles []upload.StoredObject `json:"uploadedFiles"`
}

type Service struct {
	repo     Repository
	uploader upload.Uploader
	events   EventPublisher
	process  ProcessStarter
	recorder OperationRecorder

	reviewProcessID string
	maxFileBytes    int64

	logger logger.Logger
	tracer trace.Tracer
}

type Option func(*Service)

// WithEvents publishes lifecycle events after each committed write.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithReviewProcess starts processID for every created application.
func WithReviewProcess(p ProcessStarter, processID string) Option {
	return func(s *Service) {
		s.process = p
		s.reviewProcessID = processID
	}
}

func WithRecorder(r OperationRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithMaxFileBytes(n int64) Option {
	return func(s *Service) { s.maxFileBytes = n }
}

func NewService(repo Repository, uploader upload.Uploader, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		uploader:     uploader,
		maxFileBytes: upload.DefaultMaxFileBytes,
		logger:       log.WithFields(map[string]interface{}{"component": "submission"}),
		tracer:       otel.Tracer("startup-intake/submission"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates sub as a new application, stores its files and writes the
// aggregate. Nothing is uploaded when validation fails.
func (s *Service) Create(ctx context.Context, sub *form.Submission) (res *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "submission.create")
	defer span.End()
	defer s.observe(ctx, span, "create", time.Now(), &err)

	if vr := s.validate(sub.Draft, validation.ModeCreate, nil); !vr.Valid() {
		return nil, errors.NewValidationFailedError(vr.ByField())
	}

	stored, uploaded, err := s.uploadAll(ctx, sub)
	if err != nil {
		return nil, err
	}

	app := reconcile.Materialize(sub.Draft, uploaded)
	s.warnUnknownOptions(app)

	id, err := s.repo.Create(ctx, app)
	if err != nil {
		return nil, persistenceError(err, 0)
	}
	app.ID = id
	span.SetAttributes(attribute.Int64("application.id", id))

	s.publish(ctx, EventCreated, id)
	s.startReview(ctx, id)

	s.logger.Info("application submitted", map[string]interface{}{
		"applicationId": id,
		"uploadedFiles": len(stored),
	})
	return &Result{ID: id, Application: app, UploadedFiles: stored}, nil
}

// Update applies sub as an edit of application id. A document on file
// satisfies a requirement unless sub removes it.
func (s *Service) Update(ctx context.Context, id int64, sub *form.Submission) (res *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "submission.update", trace.WithAttributes(attribute.Int64("application.id", id)))
	defer span.End()
	defer s.observe(ctx, span, "update", time.Now(), &err)

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err, id)
	}

	if vr := s.validate(sub.Draft, validation.ModeEdit, existing); !vr.Valid() {
		return nil, errors.NewValidationFailedError(vr.ByField())
	}

	stored, uploaded, err := s.uploadAll(ctx, sub)
	if err != nil {
		return nil, err
	}

	app := reconcile.Reconcile(existing, sub.Draft, uploaded)
	s.warnUnknownOptions(app)

	if err := s.repo.Update(ctx, id, app); err != nil {
		return nil, persistenceError(err, id)
	}
	app.ID = id

	s.publish(ctx, EventUpdated, id)

	s.logger.Info("application updated", map[string]interface{}{
		"applicationId": id,
		"uploadedFiles": len(stored),
	})
	return &Result{ID: id, Application: app, UploadedFiles: stored}, nil
}

// Validate runs only the validation step. With a nil id the draft is checked
// as a create; otherwise as an edit of the stored application.
func (s *Service) Validate(ctx context.Context, id *int64, sub *form.Submission) (*validation.Result, error) {
	ctx, span := s.tracer.Start(ctx, "submission.validate")
	defer span.End()

	if id == nil {
		return s.validate(sub.Draft, validation.ModeCreate, nil), nil
	}

	span.SetAttributes(attribute.Int64("application.id", *id))
	existing, err := s.repo.GetByID(ctx, *id)
	if err != nil {
		return nil, persistenceError(err, *id)
	}
	return s.validate(sub.Draft, validation.ModeEdit, existing), nil
}

// Delete removes application id and its child rows.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "submission.delete", trace.WithAttributes(attribute.Int64("application.id", id)))
	defer span.End()
	defer s.observe(ctx, span, "delete", time.Now(), &err)

	if err := s.repo.Delete(ctx, id); err != nil {
		return persistenceError(err, id)
	}
	s.publish(ctx, EventDeleted, id)
	s.logger.Info("application deleted", map[string]interface{}{"applicationId": id})
	return nil
}

func (s *Service) validate(d *form.Draft, mode validation.Mode, snapshot *models.Application) *validation.Result {
	vr := validation.Validate(d, mode, snapshot, validation.WithMaxFileBytes(s.maxFileBytes))
	for _, fe := range vr.Errors {
		metrics.ValidationErrors.WithLabelValues(fe.Field, fe.Code).Inc()
	}
	if !vr.Valid() {
		s.logger.Info("submission rejected", map[string]interface{}{
			"mode":   mode.String(),
			"errors": len(vr.Errors),
		})
	}
	return vr
}

// uploadAll stores every file part in leaf order and stops at the first
// failure. Objects already written are left in place.
func (s *Service) uploadAll(ctx context.Context, sub *form.Submission) ([]upload.StoredObject, reconcile.Uploaded, error) {
	stored := make([]upload.StoredObject, 0, len(sub.Files))
	uploaded := reconcile.Uploaded{}

	for _, leaf := range sub.FileLeaves() {
		obj, err := s.uploader.Upload(ctx, sub.Files[leaf], upload.FolderFor(leaf))
		if err != nil {
			s.logger.Error("document upload failed", map[string]interface{}{
				"field":    leaf,
				"uploaded": len(stored),
				"error":    err.Error(),
			})
			return nil, nil, errors.NewDocumentUploadFailedError(leaf, err)
		}
		obj.Field = leaf
		stored = append(stored, *obj)
		uploaded[leaf] = obj.URL
	}
	return stored, uploaded, nil
}

func (s *Service) warnUnknownOptions(app *models.Application) {
	for _, path := range policy.Annotate(app) {
		metrics.UnknownOptions.WithLabelValues(path).Inc()
		s.logger.Warn("grading value has no policy option", map[string]interface{}{"field": path})
	}
}

func (s *Service) publish(ctx context.Context, event string, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishApplicationEvent(ctx, event, id); err != nil {
		stdErr := errors.NewEventPublishFailedError(event, err)
		s.logger.Warn("lifecycle event not published", map[string]interface{}{
			"applicationId": id,
			"event":         event,
			"error":         stdErr.Details,
		})
	}
}

func (s *Service) startReview(ctx context.Context, id int64) {
	if s.process == nil || s.reviewProcessID == "" {
		return
	}
	key, err := s.process.StartProcess(ctx, s.reviewProcessID, map[string]interface{}{"applicationId": id})
	if err != nil {
		s.logger.Warn("review process not started", map[string]interface{}{
			"applicationId": id,
			"processId":     s.reviewProcessID,
			"error":         err.Error(),
		})
		return
	}
	s.logger.Info("review process started", map[string]interface{}{
		"applicationId":      id,
		"processInstanceKey": key,
	})
}

func (s *Service) observe(ctx context.Context, span trace.Span, operation string, start time.Time, errp *error) {
	outcome := "success"
	if err := *errp; err != nil {
		outcome = "failure"
		if stdErr, ok := errors.As(err); ok {
			outcome = string(stdErr.Code)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.Submissions.WithLabelValues(operation, outcome).Inc()
	if s.recorder != nil {
		s.recorder.RecordOperation(ctx, "submission."+operation, outcome, time.Since(start))
	}
}

// persistenceError converts a store failure into the boundary error.
func persistenceError(err error, id int64) error {
	switch {
	case stderrors.Is(err, driver.ErrBadConn), stderrors.Is(err, sql.ErrConnDone):
		return errors.NewDatabaseConnectionFailedError(err)
	case stderrors.Is(err, store.ErrNotFound):
		return errors.NewApplicationNotFoundError(id, err)
	case stderrors.Is(err, store.ErrInsertFailed):
		return errors.NewDatabaseInsertFailedError(err)
	case stderrors.Is(err, store.ErrUpdateFailed):
		return errors.NewDatabaseUpdateFailedError(err)
	case stderrors.Is(err, store.ErrQueryFailed), stderrors.Is(err, store.ErrDeleteFailed):
		return errors.NewQueryExecutionFailedError("application", err)
	default:
		return errors.NewInternalError(err)
	}
}
