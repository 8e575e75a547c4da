// Package storage persists rendered audio artifacts and publishes their locations.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ArtifactStore saves artifacts under a flat name and returns the location clients should
// fetch them from. Delete accepts any location previously returned by Save.
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, location string) error
}

// ArtifactName is the deterministic artifact name of a podcast's audio.
func ArtifactName(podcastID uuid.UUID, ext string) string {
	return fmt.Sprintf("podcast_%s.%s", podcastID, strings.TrimPrefix(ext, "."))
}

// nameFromLocation recovers the artifact name from a published URL or path.
func nameFromLocation(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	return path.Base(location)
}
