package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"teamsync-backend/internal/shared/util"
)

var ErrNotFound = errors.New("object not found")

// ObjectStore stores raw uploads under caller-chosen keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// TranscriptKey builds the storage key of a transcript's raw upload. Keys are
// stable per transcript so a re-upload overwrites the previous bytes.
func TranscriptKey(userID, transcriptID, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("transcript key: %w", err)
	}
	if transcriptID == "" {
		return "", errors.New("transcript key: empty transcript id")
	}
	return path.Join("transcripts", util.HashUserKey(userID), transcriptID, name), nil
}
