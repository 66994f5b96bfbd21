// Package fsutil provides file system helpers for manifest discovery.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPaths resolves a mix of files and directories into the list of
// manifest files to load. Directories are searched recursively; both files
// and directory entries are kept only when they carry one of the given
// extensions (e.g. ".hcl"), so several format-specific loaders can be
// pointed at the same paths and each picks up its own files. The result
// preserves the order paths were given in, with directory contents sorted
// by WalkDir.
func ExpandPaths(paths []string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("fsutil: at least one extension is required")
	}
	matches := func(name string) bool {
		for _, ext := range extensions {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
		return false
	}

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("resolving manifest path %s: %w", path, err)
		}
		if !info.IsDir() {
			if matches(info.Name()) {
				files = append(files, path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if matches(d.Name()) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking manifest directory %s: %w", path, err)
		}
	}
	return files, nil
}
