package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"startup-intake/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPutter struct {
	key         string
	contentType string
	body        string
	err         error
}

func (p *recordingPutter) PutObject(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	b, _ := io.ReadAll(body)
	p.key, p.contentType, p.body = key, contentType, string(b)
	return "https://docs.example/" + key, nil
}

func textFile(name, content string) *File {
	return &File{
		FileName: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestStorage_Upload(t *testing.T) {
	putter := &recordingPutter{}
	s := NewStorage(putter, 0, logger.NewTestLogger(t))
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	obj, err := s.Upload(context.Background(), textFile("Balance Sheet.PDF", "%PDF-1.7"), "balance-sheets")

	require.NoError(t, err)
	assert.Regexp(t, `^balance-sheets/Balance_Sheet_1700000000000_[0-9a-f]{8}\.pdf$`, obj.Key)
	assert.Equal(t, "https://docs.example/"+obj.Key, obj.URL)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, "Balance Sheet.PDF", obj.FileName)
	assert.Equal(t, int64(8), obj.Size)
	assert.Equal(t, "%PDF-1.7", putter.body)
	assert.Equal(t, "application/pdf", putter.contentType)
}

func TestStorage_Upload_RejectsBeforeWriting(t *testing.T) {
	putter := &recordingPutter{}
	s := NewStorage(putter, 4, logger.NewTestLogger(t))

	_, err := s.Upload(context.Background(), textFile("big.txt", "12345"), "documents")
	assert.True(t, errors.Is(err, ErrFileTooLarge))

	_, err = s.Upload(context.Background(), textFile("run.sh", "ls"), "documents")
	assert.True(t, errors.Is(err, ErrFileTypeNotAllowed))

	assert.Empty(t, putter.key)
}

func TestStorage_Upload_PutFailure(t *testing.T) {
	cause := errors.New("SlowDown")
	s := NewStorage(&recordingPutter{err: cause}, 0, logger.NewTestLogger(t))

	_, err := s.Upload(context.Background(), textFile("moa.pdf", "%PDF"), "moa-files")

	assert.True(t, errors.Is(err, cause))
}
