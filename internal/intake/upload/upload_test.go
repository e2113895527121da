package upload

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFolderFor(t *testing.T) {
	tests := map[string]string{
		"moaFile":                    "moa-files",
		"reconstructionFile":         "reconstruction-files",
		"incomeTaxReturns.fy2022_23": "tax-returns",
		"annualAccounts[0].balanceSheet":                  "balance-sheets",
		"annualAccounts[2].profitLossDoc":                 "profit-loss",
		"innovationGrading.intellectualProperty.document": "innovation-grading-docs",
		"wealthGrading.profitability.document":            "wealth-grading-docs",
		"employmentCreation.directEmployment.document":    "employment-creation-docs",
	}

	for leaf, want := range tests {
		t.Run(leaf, func(t *testing.T) {
			assert.Equal(t, want, FolderFor(leaf))
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr error
	}{
		{"pdf accepted", File{FileName: "moa.PDF", Size: 1024}, nil},
		{"docx accepted", File{FileName: "plan.docx", Size: 1}, nil},
		{"exe rejected", File{FileName: "setup.exe", Size: 10}, ErrFileTypeNotAllowed},
		{"no extension rejected", File{FileName: "README", Size: 10}, ErrFileTypeNotAllowed},
		{"empty rejected", File{FileName: "a.png", Size: 0}, ErrEmptyFile},
		{"over limit rejected", File{FileName: "a.png", Size: DefaultMaxFileBytes + 1}, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(&tt.file, 0)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	ct, ok := ContentTypeFor("scan.JPEG")
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", ct)

	_, ok = ContentTypeFor("archive.zip")
	assert.False(t, ok)

	for _, ext := range AllowedExtensions() {
		_, ok := ContentTypeFor("x." + ext)
		assert.True(t, ok, ext)
	}
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1717000000000)

	key := ObjectKey("moa-files", "Memorandum of Association (final).PDF", now)

	assert.True(t, strings.HasPrefix(key, "moa-files/Memorandum_of_Association__final__1717000000000_"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.Regexp(t, regexp.MustCompile(`_[0-9a-f]{8}\.pdf$`), key)

	other := ObjectKey("moa-files", "Memorandum of Association (final).PDF", now)
	assert.NotEqual(t, key, other)
}
