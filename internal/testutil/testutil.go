package testutil

import (
	"os"
	"path/filepath"
)

// TestDataDir holds the page dump fixtures, or is empty when the project root
// could not be found.
var TestDataDir string

func init() {
	root := FindProjectRoot()
	if root != "" {
		TestDataDir = filepath.Join(root, "testdata", "pages")
	}
}

// FindProjectRoot walks up from the working directory to the first directory
// holding a .root marker.
func FindProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, ".root")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return ""
		}
		cwd = parent
	}
}

// Fixture returns the path of a named fixture under TestDataDir.
func Fixture(name string) string {
	return filepath.Join(TestDataDir, name)
}
