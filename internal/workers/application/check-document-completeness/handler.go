package checkdocumentcompleteness

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"startup-intake/internal/common/errors"
	"startup-intake/internal/common/logger"
	"startup-intake/internal/common/metrics"
	"startup-intake/internal/intake/docref"
	"startup-intake/internal/intake/form"
	"startup-intake/internal/intake/store"
	"startup-intake/internal/intake/validation"
	"startup-intake/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-document-completeness"
)

type ApplicationReader interface {
	GetByID(ctx context.Context, id int64) (*models.Application, error)
}

type Handler struct {
	config       *Config
	reader       ApplicationReader
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, reader ApplicationReader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		reader:       reader,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewInvalidRequestError(fmt.Errorf("parse input: %w", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute re-checks a stored aggregate the way an unchanged edit would be
// checked. An incomplete application is a normal result, not an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID <= 0 {
		return nil, errors.NewInvalidRequestError(fmt.Errorf("applicationId must be positive, got %d", input.ApplicationID))
	}

	app, err := h.reader.GetByID(ctx, input.ApplicationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewApplicationNotFoundError(input.ApplicationID, err)
		}
		return nil, errors.NewQueryExecutionFailedError("get startup application", err)
	}

	res := validation.Validate(form.FromApplication(app), validation.ModeEdit, app)

	out := &Output{
		IsComplete:       res.Valid(),
		MissingDocuments: []string{},
		ValidationErrors: res.Errors,
	}
	if out.ValidationErrors == nil {
		out.ValidationErrors = []validation.FieldError{}
	}
	seen := make(map[string]bool)
	for _, fe := range res.Errors {
		if docref.IsLeaf(fe.Field) && !seen[fe.Field] {
			seen[fe.Field] = true
			out.MissingDocuments = append(out.MissingDocuments, fe.Field)
		}
	}

	h.logger.Info("document completeness checked", map[string]interface{}{
		"applicationId": app.ID,
		"isComplete":    out.IsComplete,
		"missing":       len(out.MissingDocuments),
	})
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed successfully", map[string]interface{}{"jobKey": job.Key})
}

// fail reports on a fresh context; the job context may already be expired.
func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}
