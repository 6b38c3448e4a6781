// Package artifact archives normalized audio files outside the working
// directory, on local disk or in an S3-compatible bucket.
//
// Keys are forward-slash separated. Reading a missing key returns an error
// wrapping os.ErrNotExist on every backend.
package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ContentType is attached to every archived object.
const ContentType = "audio/wav"

// Store is where archived artifacts live. Implementations must be safe for
// concurrent use.
type Store interface {
	// Read opens the artifact at key. The caller closes the reader.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Write stores everything read from r under key, replacing any
	// existing artifact, and returns the number of bytes stored.
	Write(ctx context.Context, key string, r io.Reader) (int64, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// Kinds of per-turn artifacts.
const (
	KindUser = "user"
	KindFast = "fast"
	KindHQ   = "hq"
)

// Key returns the archive key for a turn artifact:
// sessions/<session>/<turn>-<kind>.wav.
func Key(sessionID string, turn int, kind string) string {
	return fmt.Sprintf("sessions/%s/%d-%s.wav", sanitize(sessionID), turn, kind)
}

// ProfileKey returns the archive key for a voice profile reference sample.
func ProfileKey(name string) string {
	return fmt.Sprintf("profiles/%s.wav", sanitize(name))
}

// Archive copies the file at localPath into store under key.
func Archive(ctx context.Context, store Store, localPath, key string) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("artifact: open %s: %w", localPath, err)
	}
	defer f.Close()

	n, err := store.Write(ctx, key, f)
	if err != nil {
		return n, fmt.Errorf("artifact: archive %s: %w", key, err)
	}
	return n, nil
}

// sanitize keeps a key segment from escaping its directory.
func sanitize(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
