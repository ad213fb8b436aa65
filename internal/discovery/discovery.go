// Package discovery walks a root directory following the project's
// filesystem layout and produces the LocalFile set the planner consumes.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bqport/bqport/internal/resource"
)

// LocalFile is one discovered SQL source file, immutable for the run.
type LocalFile struct {
	Path string
	ID   resource.ID
	SQL  string
	// IsView marks a view.sql file, which the executor special-cases into a
	// CREATE OR REPLACE VIEW regardless of what the SQL analyzer infers.
	IsView bool
}

// Walk scans root for ddl.sql and view.sql files, mapping each to its
// resource identifier via defaultProject. Only the two deploy-bearing
// filenames are collected; metadata.json is read on demand by the metadata
// syncer, not during discovery.
func Walk(root, defaultProject string) ([]LocalFile, error) {
	var files []LocalFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if name != "ddl.sql" && name != "view.sql" {
			return nil
		}

		id, err := resource.PathToID(path, root, defaultProject)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		files = append(files, LocalFile{
			Path:   path,
			ID:     id,
			SQL:    string(data),
			IsView: name == "view.sql",
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Datasets returns the distinct dataset ids (project.dataset) a file tree's
// files belong to, in sorted order. Used by the reconciliation planner to
// enumerate which datasets to diff against the remote inventory.
func Datasets(files []LocalFile) []resource.ID {
	seen := map[resource.ID]struct{}{}
	var ids []resource.ID
	for _, f := range files {
		ds := f.ID.DatasetID()
		if _, ok := seen[ds]; ok {
			continue
		}
		seen[ds] = struct{}{}
		ids = append(ids, ds)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
