// Package staging manages the local directory holding files uploaded for
// use as email attachments.
package staging

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// listLimit caps how many files a listing reports in full.
const listLimit = 20

// Store provides access to the attachment staging directory. The
// directory is created on first write, not at construction.
type Store struct {
	root string
}

// SavedFile describes a file written to the staging directory.
type SavedFile struct {
	Name string
	Path string
	Size int64
}

// FileInfo describes one file found by List.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// New creates a Store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the staging root directory.
func (s *Store) Root() string {
	return s.root
}

// Resolve turns a possibly relative attachment path into an absolute one.
// Absolute paths pass through untouched; relative paths join the root.
func (s *Store) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

// Save writes content to a file in the staging directory, decoding base64
// first when isBase64 is set. The filename must be a bare name without
// path separators.
func (s *Store) Save(filename, content string, isBase64 bool) (SavedFile, error) {
	if filename == "" {
		return SavedFile{}, fmt.Errorf("filename is required")
	}
	if filepath.Base(filename) != filename || filename == "." || filename == ".." {
		return SavedFile{}, fmt.Errorf("invalid filename %q: must not contain path separators", filename)
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return SavedFile{}, fmt.Errorf("failed to create staging directory: %w", err)
	}

	data := []byte(content)
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return SavedFile{}, fmt.Errorf("failed to decode base64 content: %w", err)
		}
		data = decoded
	}

	path := filepath.Join(s.root, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return SavedFile{}, fmt.Errorf("failed to write file: %w", err)
	}

	return SavedFile{
		Name: filename,
		Path: path,
		Size: int64(len(data)),
	}, nil
}

// List returns the regular files in dir, or in the staging root when dir
// is empty. Entries are sorted by name.
func (s *Store) List(dir string) ([]FileInfo, error) {
	if dir == "" {
		dir = s.root
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Size: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FormatListing renders a file listing for tool output, capping the
// number of fully listed files and reporting the remainder as a count.
func FormatListing(dir string, files []FileInfo) string {
	if len(files) == 0 {
		return fmt.Sprintf("No files found in: %s", dir)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Files in %s:\n", dir)

	shown := files
	if len(shown) > listLimit {
		shown = shown[:listLimit]
	}
	for _, f := range shown {
		fmt.Fprintf(&b, "\nFile: %s (%s)\n   Path: %s\n", f.Name, FormatSize(f.Size), f.Path)
	}

	if len(files) > listLimit {
		fmt.Fprintf(&b, "\n... and %d more files", len(files)-listLimit)
	}

	return b.String()
}

// FormatSize formats a byte count into a human-readable string.
func FormatSize(size int64) string {
	const mb = 1024 * 1024
	if size >= mb {
		return fmt.Sprintf("%.1f MB", float64(size)/float64(mb))
	}
	return fmt.Sprintf("%d bytes", size)
}
