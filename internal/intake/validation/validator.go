// Package validation checks an application draft against the field
// requirement policy. Validate is pure: it reads the draft and the pre-edit
// snapshot, collects every problem and changes nothing.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"startup-intake/internal/intake/docref"
	"startup-intake/internal/intake/form"
	"startup-intake/internal/intake/policy"
	"startup-intake/internal/intake/upload"
	"startup-intake/internal/models"

	"github.com/shopspring/decimal"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

const (
	CodeRequired           = "REQUIRED"
	CodeDocumentRequired   = "DOCUMENT_REQUIRED"
	CodeInvalidURL         = "INVALID_URL"
	CodeInvalidNumber      = "INVALID_NUMBER"
	CodeNegativeValue      = "NEGATIVE_VALUE"
	CodeFileTypeNotAllowed = "FILE_TYPE_NOT_ALLOWED"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeEmptyFile          = "EMPTY_FILE"
)

var videoLinkPattern = regexp.MustCompile(`^https?://.+`)

// Amounts are stored as NUMERIC(18, 2).
const amountScale = 2

var amountLimit = decimal.New(1, 16)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result holds every field error found in one pass.
type Result struct {
	Errors []FieldError `json:"errors"`
}

func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// ByField returns the first message reported for each field path.
func (r *Result) ByField() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Has reports whether field has an error with code.
func (r *Result) Has(field, code string) bool {
	for _, e := range r.Errors {
		if e.Field == field && e.Code == code {
			return true
		}
	}
	return false
}

func (r *Result) add(field, code, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Code: code, Message: message})
}

type options struct {
	maxFileBytes int64
}

type Option func(*options)

// WithMaxFileBytes overrides the per-file size limit.
func WithMaxFileBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFileBytes = n
		}
	}
}

// Validate checks d in the given mode. In edit mode snapshot is the aggregate
// as loaded before the edit; a document on file there satisfies a requirement
// unless the draft explicitly removes it.
func Validate(d *form.Draft, mode Mode, snapshot *models.Application, opts ...Option) *Result {
	o := options{maxFileBytes: upload.DefaultMaxFileBytes}
	for _, opt := range opts {
		opt(&o)
	}

	if mode == ModeCreate {
		snapshot = nil
	}
	v := &run{
		draft:    d,
		mode:     mode,
		resolver: docref.NewResolver(snapshot),
		result:   &Result{},
	}

	v.videoLink()
	v.requiredDocument("moaFile", &d.MoaFile)
	v.requiredDocument("reconstructionFile", &d.ReconstructionFile)
	v.annualAccounts()
	v.grading()
	v.files(o.maxFileBytes)
	return v.result
}

type run struct {
	draft    *form.Draft
	mode     Mode
	resolver *docref.Resolver
	result   *Result
}

// hasDocument reports whether leaf will hold a document after this request.
func (v *run) hasDocument(leaf string, f *form.DocField) bool {
	switch f.State {
	case form.DocUpload:
		return true
	case form.DocRemoved:
		return false
	}
	if v.mode != ModeEdit {
		return false
	}
	_, ok := v.resolver.ExistingDocumentURL(leaf)
	return ok
}

func (v *run) videoLink() {
	const path = "startupVideoLink"
	link := strings.TrimSpace(models.StringValue(v.draft.StartupVideoLink))
	if link == "" {
		if policy.IsRequired(path) {
			v.result.add(path, CodeRequired, "This field is required")
		}
		return
	}
	if !videoLinkPattern.MatchString(link) {
		v.result.add(path, CodeInvalidURL, "Please provide a valid URL starting with http:// or https://")
	}
}

func (v *run) requiredDocument(leaf string, f *form.DocField) {
	if !policy.IsRequired(leaf) {
		return
	}
	if !v.hasDocument(leaf, f) {
		v.result.add(leaf, CodeRequired, "This field is required")
	}
}

// annualAccounts keys errors by the submitted row position so they line up
// with the row's file parts. A year with no submitted row uses its fiscal
// year index.
func (v *run) annualAccounts() {
	for i, r := range v.draft.AnnualRows() {
		row := &form.AnnualAccountDraft{}
		pos := i
		if r.Row != nil {
			row = r.Row
			pos = r.Index
		}
		prefix := fmt.Sprintf("annualAccounts[%d]", pos)
		v.number(prefix+".revenue", row.Revenue, false)
		v.number(prefix+".profitLoss", row.ProfitLoss, true)
	}
}

func (v *run) number(path string, n form.Number, allowNegative bool) {
	if !n.Set {
		if policy.IsRequired(path) {
			v.result.add(path, CodeRequired, "This field is required")
		}
		return
	}
	if !n.Valid {
		v.result.add(path, CodeInvalidNumber, "Must be a number")
		return
	}
	if !n.Value.Decimal.Equal(n.Value.Truncate(amountScale)) {
		v.result.add(path, CodeInvalidNumber, "Must have at most 2 decimal places")
		return
	}
	if n.Value.Abs().GreaterThanOrEqual(amountLimit) {
		v.result.add(path, CodeInvalidNumber, "Must be less than 10000000000000000 in magnitude")
		return
	}
	if !allowNegative && n.Value.IsNegative() {
		v.result.add(path, CodeNegativeValue, "Must not be negative")
	}
}

func (v *run) grading() {
	for _, s := range v.draft.GradingSelections() {
		value := ""
		if s.Selection != nil {
			value = strings.TrimSpace(s.Selection.Value)
		}
		if value == "" {
			if policy.IsRequired(s.Path) {
				v.result.add(s.Path, CodeRequired, "This field is required")
			}
			continue
		}
		if !policy.IsDocumentRequired(s.Path, value) {
			continue
		}
		leaf := docref.GradingLeaf(s.Path)
		if !v.hasDocument(leaf, &s.Selection.Document) {
			v.result.add(leaf, CodeDocumentRequired, "A supporting document is required for the selected option")
		}
	}
}

func (v *run) files(maxBytes int64) {
	for _, leaf := range v.draft.DocumentLeaves() {
		if leaf.Field.State != form.DocUpload || leaf.Field.File == nil {
			continue
		}
		err := upload.Check(leaf.Field.File, maxBytes)
		switch {
		case err == nil:
		case errors.Is(err, upload.ErrFileTypeNotAllowed):
			v.result.add(leaf.Path, CodeFileTypeNotAllowed,
				"File type not allowed. Allowed types: "+strings.Join(upload.AllowedExtensions(), ", "))
		case errors.Is(err, upload.ErrFileTooLarge):
			v.result.add(leaf.Path, CodeFileTooLarge, "File exceeds the "+sizeLabel(maxBytes)+" limit")
		default:
			v.result.add(leaf.Path, CodeEmptyFile, "File is empty")
		}
	}
}

func sizeLabel(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d KB", n>>10)
}
