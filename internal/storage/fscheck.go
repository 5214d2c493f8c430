package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNetworkFilesystem is returned when the audit database would live on a
// network mount, where SQLite's file locking is unreliable.
var ErrNetworkFilesystem = errors.New("SQLite requires a local filesystem for reliable locking")

var networkFilesystems = map[string]struct{}{
	"9p":     {},
	"afpfs":  {},
	"afs":    {},
	"cifs":   {},
	"coda":   {},
	"nfs":    {},
	"smbfs":  {},
	"smb2":   {},
	"webdav": {},
}

// filesystemDetector names the filesystem holding an existing path.
type filesystemDetector func(path string) (string, error)

func checkLocalFilesystem(dbPath string, detect filesystemDetector) error {
	if dbPath == "" {
		return fmt.Errorf("sqlite path is empty")
	}

	// The database and its directory may not exist yet.
	probe, err := existingAncestor(dbPath)
	if err != nil {
		return fmt.Errorf("resolve database path %q: %w", dbPath, err)
	}

	fsType, err := detect(probe)
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", probe, err)
	}
	if isNetworkFilesystem(fsType) {
		return fmt.Errorf("audit database %q is on %s: %w; set state.path (or SLASHGW_STATE_PATH) to a local file",
			dbPath, fsType, ErrNetworkFilesystem)
	}
	return nil
}

func existingAncestor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for dir := abs; ; dir = filepath.Dir(dir) {
		_, err := os.Stat(dir)
		switch {
		case err == nil:
			return dir, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		case filepath.Dir(dir) == dir:
			return "", fmt.Errorf("no existing parent for %q", abs)
		}
	}
}

func isNetworkFilesystem(fsType string) bool {
	_, found := networkFilesystems[strings.ToLower(strings.TrimSpace(fsType))]
	return found
}
