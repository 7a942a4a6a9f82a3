package ingestion

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/embedbench/core"
)

// DefaultPattern matches every file.
const DefaultPattern = "*"

// Enumerate walks dir and returns the files whose name matches pattern,
// sorted byte-wise by slash-separated path relative to dir. A pattern that
// contains a slash is matched against the relative path instead of the name.
// Hidden files and directories are skipped.
//
// The order does not depend on the platform or the filesystem, so every
// shard of a run sees the same Index for the same file.
func Enumerate(dir, pattern string) ([]core.DocumentRef, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w: file pattern %q: %v", core.ErrConfiguration, pattern, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	var refs []core.DocumentRef
	err = filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if file != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		subject := d.Name()
		if strings.Contains(pattern, "/") {
			subject = rel
		}
		if ok, _ := filepath.Match(pattern, subject); !ok {
			return nil
		}
		refs = append(refs, core.DocumentRef{ID: documentID(rel), Path: file, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(refs, func(a, b core.DocumentRef) int { return strings.Compare(a.RelPath, b.RelPath) })
	for i := range refs {
		refs[i].Index = i
	}
	if err := checkUnique(refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// ReadManifest reads a list of document paths, one per line, in the order
// given. Blank lines and lines starting with # are ignored. Relative paths
// are resolved against baseDir.
func ReadManifest(manifest, baseDir string) ([]core.DocumentRef, error) {
	f, err := os.Open(manifest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	defer f.Close()

	var refs []core.DocumentRef
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		docPath := filepath.FromSlash(line)
		if !filepath.IsAbs(docPath) {
			docPath = filepath.Join(baseDir, docPath)
		}
		refs = append(refs, core.DocumentRef{
			ID:      documentID(line),
			Path:    docPath,
			RelPath: filepath.ToSlash(line),
			Index:   len(refs),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := checkUnique(refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// documentID is the slash-separated relative path without its extension.
// Leading slashes of absolute manifest entries are dropped.
func documentID(rel string) string {
	rel = strings.TrimLeft(path.Clean(filepath.ToSlash(rel)), "/")
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// checkUnique rejects inputs where two files share an id, such as
// report.txt and report.html in one directory.
func checkUnique(refs []core.DocumentRef) error {
	seen := make(map[string]string, len(refs))
	for _, ref := range refs {
		if prev, ok := seen[ref.ID]; ok {
			return fmt.Errorf("%w: %q from %s and %s", ErrDuplicateDocument, ref.ID, prev, ref.RelPath)
		}
		seen[ref.ID] = ref.RelPath
	}
	return nil
}
