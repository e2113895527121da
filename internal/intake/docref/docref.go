// Package docref enumerates the document leaves of an application and
// resolves the document already on file at a leaf of a persisted snapshot.
package docref

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"startup-intake/internal/models"

	"github.com/tidwall/gjson"
)

var (
	mainLeaves = []string{"moaFile", "reconstructionFile"}
	taxLeaves  = []string{
		"incomeTaxReturns.fy2024_25",
		"incomeTaxReturns.fy2023_24",
		"incomeTaxReturns.fy2022_23",
	}
	annualDocFields = []string{"balanceSheet", "profitLossDoc"}

	annualLeafPattern   = regexp.MustCompile(`^annualAccounts\[(\d+)\]\.(balanceSheet|profitLossDoc)$`)
	bracketIndexPattern = regexp.MustCompile(`\[(\d+)\]`)
)

// AnnualLeaf returns the leaf path of an annual-account document slot.
func AnnualLeaf(index int, field string) string {
	return fmt.Sprintf("annualAccounts[%d].%s", index, field)
}

// GradingLeaf returns the document leaf of a grading field path.
func GradingLeaf(fieldPath string) string {
	return fieldPath + ".document"
}

// Leaves returns the 19 document leaves of the canonical aggregate shape.
func Leaves() []string {
	out := make([]string, 0, 19)
	out = append(out, mainLeaves...)
	out = append(out, taxLeaves...)
	for i := range models.FiscalYears {
		for _, f := range annualDocFields {
			out = append(out, AnnualLeaf(i, f))
		}
	}
	app := &models.Application{}
	for _, s := range app.GradingSelections() {
		out = append(out, GradingLeaf(s.Path))
	}
	return out
}

// IsLeaf reports whether path names a document slot. Annual-account leaves
// are accepted at any row index.
func IsLeaf(path string) bool {
	if annualLeafPattern.MatchString(path) {
		return true
	}
	for _, l := range Leaves() {
		if l == path {
			return true
		}
	}
	return false
}

// ParseAnnualLeaf splits an annual-account leaf into row index and field.
func ParseAnnualLeaf(path string) (int, string, bool) {
	m := annualLeafPattern.FindStringSubmatch(path)
	if m == nil {
		return 0, "", false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return idx, m[2], true
}

// IsDocumentURL reports whether s is an absolute http(s) URL with a host.
func IsDocumentURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolver answers existing-document lookups against one snapshot.
type Resolver struct {
	doc []byte
}

// NewResolver encodes snapshot once for repeated lookups. A nil snapshot
// resolves nothing.
func NewResolver(snapshot *models.Application) *Resolver {
	if snapshot == nil {
		return &Resolver{}
	}
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return &Resolver{}
	}
	return &Resolver{doc: doc}
}

// ExistingDocumentURL walks the dotted/bracketed path into the snapshot and
// returns the value when it is a well-formed document URL.
func (r *Resolver) ExistingDocumentURL(path string) (string, bool) {
	if len(r.doc) == 0 {
		return "", false
	}
	res := gjson.GetBytes(r.doc, toGJSONPath(path))
	if res.Type != gjson.String {
		return "", false
	}
	if !IsDocumentURL(res.Str) {
		return "", false
	}
	return res.Str, true
}

// ExistingDocumentURL is a one-shot lookup.
func ExistingDocumentURL(snapshot *models.Application, path string) (string, bool) {
	return NewResolver(snapshot).ExistingDocumentURL(path)
}

func toGJSONPath(path string) string {
	return bracketIndexPattern.ReplaceAllString(path, ".$1")
}
