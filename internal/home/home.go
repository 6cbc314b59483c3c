package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the kbase home directory.
	DefaultDirName = ".kbase"

	// DataDirName holds the embedded database.
	DataDirName = "data"

	// DocumentsDirName holds uploaded files, one subdirectory per document.
	DocumentsDirName = "documents"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the kbase home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.kbase).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the database directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DocumentsDir returns the root of uploaded files.
func (d *Dir) DocumentsDir() string {
	return filepath.Join(d.path, DocumentsDirName)
}

// DocumentDir returns the directory holding one document's file.
func (d *Dir) DocumentDir(docID string) string {
	return filepath.Join(d.DocumentsDir(), docID)
}

// DocumentPath returns where a document's uploaded file is stored. Only
// the base name of filename is used.
func (d *Dir) DocumentPath(docID, filename string) string {
	return filepath.Join(d.DocumentDir(docID), filepath.Base(filename))
}

// EnsureDocumentDir creates the directory for a document's file.
func (d *Dir) EnsureDocumentDir(docID string) error {
	return os.MkdirAll(d.DocumentDir(docID), 0o755)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.DataPath(), d.DocumentsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
