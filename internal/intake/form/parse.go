package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strings"

	"startup-intake/internal/intake/docref"
	"startup-intake/internal/intake/upload"
)

var (
	ErrInvalidRequest  = errors.New("INVALID_REQUEST")
	ErrUnknownFilePart = errors.New("UNKNOWN_FILE_PART")
)

const removalSentinel = "null"

// Submission is a decoded request: the draft plus the file parts, keyed by
// document leaf path.
type Submission struct {
	Draft *Draft
	Files map[string]*upload.File
}

// FileLeaves returns the leaf paths carrying a file, sorted.
func (s *Submission) FileLeaves() []string {
	out := make([]string, 0, len(s.Files))
	for leaf := range s.Files {
		out = append(out, leaf)
	}
	sort.Strings(out)
	return out
}

// Attach records f as the upload for leaf. A leaf the draft explicitly nulled
// stays removed and the file is dropped.
func (s *Submission) Attach(leaf string, f *upload.File) error {
	field := s.Draft.Leaf(leaf)
	if field == nil {
		return fmt.Errorf("%w: %s", ErrUnknownFilePart, leaf)
	}
	if field.State == DocRemoved {
		return nil
	}
	*field = Upload(f)
	if s.Files == nil {
		s.Files = map[string]*upload.File{}
	}
	s.Files[leaf] = f
	return nil
}

var jsonSections = []string{
	"incomeTaxReturns",
	"annualAccounts",
	"innovationGrading",
	"wealthGrading",
	"employmentCreation",
}

// Parse decodes a parsed multipart form into a Submission.
func Parse(mf *multipart.Form) (*Submission, error) {
	if mf == nil {
		return nil, fmt.Errorf("%w: empty form", ErrInvalidRequest)
	}

	d := &Draft{}
	for _, section := range jsonSections {
		raw, ok := firstValue(mf.Value, section)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if err := decodeSection(d, section, []byte(raw)); err != nil {
			return nil, err
		}
	}

	if v, ok := firstValue(mf.Value, "startupVideoLink"); ok {
		d.StartupVideoLink = &v
	}
	d.MoaFile = mainFileField(mf.Value, "moaFile", "existingMoaFile")
	d.ReconstructionFile = mainFileField(mf.Value, "reconstructionFile", "existingReconstructionFile")

	sub := &Submission{Draft: d, Files: map[string]*upload.File{}}
	for key, headers := range mf.File {
		if len(headers) == 0 {
			continue
		}
		if !docref.IsLeaf(key) {
			return nil, fmt.Errorf("%w: %w: %s", ErrInvalidRequest, ErrUnknownFilePart, key)
		}
		if err := sub.Attach(key, fileFromHeader(headers[0])); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return sub, nil
}

func decodeSection(d *Draft, section string, raw []byte) error {
	res, err := sectionSchemas[section].Validate(raw)
	if err != nil {
		return fmt.Errorf("%w: %s is not valid JSON", ErrInvalidRequest, section)
	}
	if !res.Valid {
		return fmt.Errorf("%w: %s: %s", ErrInvalidRequest, section, strings.Join(res.Messages(), "; "))
	}

	var target interface{}
	switch section {
	case "incomeTaxReturns":
		target = &d.IncomeTaxReturns
	case "annualAccounts":
		target = &d.AnnualAccounts
	case "innovationGrading":
		target = &d.InnovationGrading
	case "wealthGrading":
		target = &d.WealthGrading
	case "employmentCreation":
		target = &d.EmploymentCreation
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRequest, section, err)
	}
	return nil
}

// mainFileField reads the text form of a top-level document: "null" removes,
// a URL keeps, and the existing* hint keeps when nothing else was sent.
func mainFileField(values map[string][]string, key, existingKey string) DocField {
	if v, ok := firstValue(values, key); ok {
		v = strings.TrimSpace(v)
		if v == removalSentinel {
			return Removed()
		}
		if v != "" {
			return Kept(v)
		}
	}
	if v, ok := firstValue(values, existingKey); ok {
		if v = strings.TrimSpace(v); v != "" && v != removalSentinel {
			return Kept(v)
		}
	}
	return DocField{}
}

func fileFromHeader(h *multipart.FileHeader) *upload.File {
	return &upload.File{
		FileName:    h.Filename,
		Size:        h.Size,
		ContentType: h.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return h.Open()
		},
	}
}

func firstValue(values map[string][]string, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
