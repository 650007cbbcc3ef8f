package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker lists text files under a root that match include globs and do not
// match exclude globs. Patterns use forward slashes and ** for any depth.
type Walker struct {
	includes []string
	excludes []string
	maxBytes int64
}

func NewWalker(includes, excludes []string, maxBytes int64) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
		maxBytes: maxBytes,
	}
}

type FileInfo struct {
	Path    string // absolute
	RelPath string // slash-separated, relative to the walk root
	Size    int64
}

// Walk returns matching files in lexical order. Oversized files are
// reported in skipped rather than returned.
func (w *Walker) Walk(root string) (files []FileInfo, skipped []string, err error) {
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		if w.maxBytes > 0 && info.Size() > w.maxBytes {
			return nil, []string{root}, nil
		}
		return []FileInfo{{Path: root, RelPath: filepath.Base(root), Size: info.Size()}}, nil, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && (w.matchAny(w.excludes, rel) || w.matchAny(w.excludes, rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.matchAny(w.includes, rel) || w.matchAny(w.excludes, rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		if w.maxBytes > 0 && fi.Size() > w.maxBytes {
			skipped = append(skipped, rel)
			return nil
		}

		files = append(files, FileInfo{Path: path, RelPath: rel, Size: fi.Size()})
		return nil
	})

	return files, skipped, err
}

func (w *Walker) matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ReadText reads a file that must be valid UTF-8.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", path)
	}
	return string(data), nil
}
