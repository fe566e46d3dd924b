package media

import (
	"errors"
	"strings"
)

// driveLinkMarker precedes the file id in Drive share links,
// e.g. https://drive.google.com/file/d/<id>/view?usp=sharing
const driveLinkMarker = "/file/d/"

var (
	ErrNoIdentifier   = errors.New("no identifier supplied")
	ErrMarkerNotFound = errors.New("marker not found")
)

// ResolveFileID returns the Drive file id for a job.
// Priority: 1) fileID verbatim  2) the path segment after /file/d/ in driveLink.
func ResolveFileID(driveLink, fileID string) (string, error) {
	if fileID != "" {
		return fileID, nil
	}
	if driveLink == "" {
		return "", ErrNoIdentifier
	}

	_, rest, ok := strings.Cut(driveLink, driveLinkMarker)
	if !ok {
		return "", ErrMarkerNotFound
	}
	id, _, _ := strings.Cut(rest, "/")
	if id == "" {
		return "", ErrNoIdentifier
	}
	return id, nil
}
