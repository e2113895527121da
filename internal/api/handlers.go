// Package api exposes the intake services over HTTP under /api/startup.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"startup-intake/internal/common/errors"
	"startup-intake/internal/common/logger"
	"startup-intake/internal/intake/form"
	"startup-intake/internal/intake/policy"
	"startup-intake/internal/intake/query"
	"startup-intake/internal/intake/submission"
	"startup-intake/internal/intake/upload"
	"startup-intake/internal/intake/validation"
	"startup-intake/internal/models"

	"github.com/gorilla/mux"
)

type Submitter interface {
	Create(ctx context.Context, sub *form.Submission) (*submission.Result, error)
	Update(ctx context.Context, id int64, sub *form.Submission) (*submission.Result, error)
	Validate(ctx context.Context, id *int64, sub *form.Submission) (*validation.Result, error)
	Delete(ctx context.Context, id int64) error
}

type Querier interface {
	List(ctx context.Context, params query.ListParams) (*query.ListResult, error)
	Get(ctx context.Context, id int64) (*models.Application, error)
}

// Limits bound multipart decoding.
type Limits struct {
	MaxRequestBytes int64
	MaxMemoryBytes  int64
}

type Handler struct {
	submissions Submitter
	queries     Querier
	limits      Limits
	logger      logger.Logger
}

func NewHandler(submissions Submitter, queries Querier, limits Limits, log logger.Logger) *Handler {
	if limits.MaxRequestBytes <= 0 {
		limits.MaxRequestBytes = 200 << 20
	}
	if limits.MaxMemoryBytes <= 0 {
		limits.MaxMemoryBytes = 32 << 20
	}
	return &Handler{
		submissions: submissions,
		queries:     queries,
		limits:      limits,
		logger:      log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

type writeData struct {
	StartupID     int64                          `json:"startupId"`
	UploadedFiles int                            `json:"uploadedFiles"`
	FileDetails   map[string]upload.StoredObject `json:"fileDetails"`
}

func newWriteData(res *submission.Result) writeData {
	details := make(map[string]upload.StoredObject, len(res.UploadedFiles))
	for _, obj := range res.UploadedFiles {
		details[obj.Field] = obj
	}
	return writeData{StartupID: res.ID, UploadedFiles: len(res.UploadedFiles), FileDetails: details}
}

func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	sub, err := h.parseSubmission(w, r)
	if err != nil {
		h.writeError(w, r, "Failed to create startup application", err)
		return
	}

	res, err := h.submissions.Create(r.Context(), sub)
	if err != nil {
		h.writeError(w, r, "Failed to create startup application", err)
		return
	}
	writeOK(w, http.StatusCreated, "Startup application created successfully", newWriteData(res))
}

func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "Application ID is required", err)
		return
	}
	sub, err := h.parseSubmission(w, r)
	if err != nil {
		h.writeError(w, r, "Failed to update startup application", err)
		return
	}

	res, err := h.submissions.Update(r.Context(), id, sub)
	if err != nil {
		h.writeError(w, r, "Failed to update startup application", err)
		return
	}
	writeOK(w, http.StatusOK, "Startup application updated successfully", newWriteData(res))
}

func (h *Handler) ValidateApplication(w http.ResponseWriter, r *http.Request) {
	var id *int64
	if _, ok := mux.Vars(r)["id"]; ok {
		parsed, err := pathID(r)
		if err != nil {
			h.writeError(w, r, "Application ID is required", err)
			return
		}
		id = &parsed
	}

	sub, err := h.parseSubmission(w, r)
	if err != nil {
		h.writeError(w, r, "Failed to validate startup application", err)
		return
	}

	res, err := h.submissions.Validate(r.Context(), id, sub)
	if err != nil {
		h.writeError(w, r, "Failed to validate startup application", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: res.Valid(), Errors: res.ByField()})
}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := query.ListParams{
		Limit:  atoiOrZero(q.Get("limit")),
		Offset: atoiOrZero(q.Get("offset")),
		Page:   atoiOrZero(q.Get("page")),
		Search: q.Get("search"),
	}

	res, err := h.queries.List(r.Context(), params)
	if err != nil {
		h.writeError(w, r, "Failed to fetch applications", err)
		return
	}
	writeOK(w, http.StatusOK, "Applications retrieved successfully", res)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "Application ID is required", err)
		return
	}

	app, err := h.queries.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "Failed to fetch startup application", err)
		return
	}
	writeOK(w, http.StatusOK, "", app)
}

func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, "Application ID is required", err)
		return
	}

	if err := h.submissions.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, "Failed to delete startup application", err)
		return
	}
	writeOK(w, http.StatusOK, "Startup application deleted successfully", nil)
}

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "", policy.Export())
}

// parseSubmission bounds the body, parses the multipart form and decodes it.
// The server removes the form's temporary files after the handler returns.
func (h *Handler) parseSubmission(w http.ResponseWriter, r *http.Request) (*form.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxRequestBytes)
	if err := r.ParseMultipartForm(h.limits.MaxMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewInvalidRequestError(fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, errors.NewInvalidRequestError(err)
	}
	sub, err := form.Parse(r.MultipartForm)
	if err != nil {
		return nil, errors.NewInvalidRequestError(err)
	}
	return sub, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequestError(fmt.Errorf("invalid application id %q", raw))
	}
	return id, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
