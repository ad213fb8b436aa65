// Package resource provides the bijection between on-disk SQL file paths and
// fully-qualified warehouse resource identifiers (project.dataset.name).
package resource

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind classifies the warehouse object a path or SQL statement refers to.
type Kind string

// Kind constants mirror the destination kinds the SQL analyzer can emit.
const (
	KindSchema            Kind = "SCHEMA"
	KindTable             Kind = "TABLE"
	KindView              Kind = "VIEW"
	KindMaterializedView  Kind = "MATERIALIZED_VIEW"
	KindRoutine           Kind = "ROUTINE"
	KindModel             Kind = "MODEL"
)

// DefaultProjectSegment is the path segment that stands in for the client's
// ambient project.
const DefaultProjectSegment = "@default"

// RoutinesSegment and ModelsSegment qualify the resource kind of everything beneath them.
const (
	RoutinesSegment = "@routines"
	ModelsSegment   = "@models"
)

// ID is a value type identifying a warehouse resource.
type ID struct {
	Project string
	Dataset string
	Name    string // empty for a dataset-scoped (schema) id
	Kind    Kind
}

// String renders the id using the same three-segment shape normalize() produces,
// without ambient-project substitution.
func (id ID) String() string {
	if id.Name == "" {
		return fmt.Sprintf("%s.%s", id.Project, id.Dataset)
	}
	return fmt.Sprintf("%s.%s.%s", id.Project, id.Dataset, id.Name)
}

// DatasetID returns the id of the dataset that owns this resource.
func (id ID) DatasetID() ID {
	return ID{Project: id.Project, Dataset: id.Dataset, Kind: KindSchema}
}

// InvalidPathError reports that a path could not be mapped to a resource id.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// PathToID maps an on-disk SQL/metadata file path to the resource it describes.
//
// Layout (relative to root):
//
//	<project-or-@default>/<dataset>/[ddl.sql|metadata.json]
//	<project-or-@default>/<dataset>/<name>/[ddl.sql|view.sql|metadata.json]
//	<project-or-@default>/<dataset>/@routines/<name>/[ddl.sql|metadata.json]
//	<project-or-@default>/<dataset>/@models/<name>/[metadata.json]
func PathToID(path, root, defaultProject string) (ID, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ID{}, &InvalidPathError{Path: path, Reason: err.Error()}
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return ID{}, &InvalidPathError{Path: path, Reason: "path escapes root"}
	}

	segments := strings.Split(rel, "/")
	if len(segments) < 2 {
		return ID{}, &InvalidPathError{Path: path, Reason: "missing project/dataset segments"}
	}

	project := segments[0]
	if project == DefaultProjectSegment {
		project = defaultProject
	}
	if project == "" {
		return ID{}, &InvalidPathError{Path: path, Reason: "no ambient project to substitute for @default"}
	}

	dataset := segments[1]
	if dataset == "" {
		return ID{}, &InvalidPathError{Path: path, Reason: "empty dataset segment"}
	}

	rest := segments[2:]
	if len(rest) == 0 {
		return ID{}, &InvalidPathError{Path: path, Reason: "missing filename"}
	}

	// Only the filename remains: this file targets the dataset itself.
	if len(rest) == 1 {
		return ID{Project: project, Dataset: dataset, Kind: KindSchema}, nil
	}

	switch rest[0] {
	case RoutinesSegment:
		if len(rest) < 3 {
			return ID{}, &InvalidPathError{Path: path, Reason: "@routines requires a name segment"}
		}
		return ID{Project: project, Dataset: dataset, Name: rest[1], Kind: KindRoutine}, nil
	case ModelsSegment:
		if len(rest) < 3 {
			return ID{}, &InvalidPathError{Path: path, Reason: "@models requires a name segment"}
		}
		return ID{Project: project, Dataset: dataset, Name: rest[1], Kind: KindModel}, nil
	default:
		// <name>/<filename>: absence of a special segment implies table/view.
		return ID{Project: project, Dataset: dataset, Name: rest[0], Kind: KindTable}, nil
	}
}

// IDToPath is the inverse of PathToID: it produces a representative path for
// id under root, substituting defaultProject back to @default when they match.
// The returned path names "ddl.sql", except for models, where it names
// "metadata.json"; callers that need another file of the same directory can
// filepath.Join(filepath.Dir(IDToPath(...)), "view.sql") etc.
func IDToPath(id ID, root, defaultProject string) string {
	projectSeg := id.Project
	if id.Project == defaultProject {
		projectSeg = DefaultProjectSegment
	}

	switch id.Kind {
	case KindSchema:
		return filepath.Join(root, projectSeg, id.Dataset, "ddl.sql")
	case KindRoutine:
		return filepath.Join(root, projectSeg, id.Dataset, RoutinesSegment, id.Name, "ddl.sql")
	case KindModel:
		return filepath.Join(root, projectSeg, id.Dataset, ModelsSegment, id.Name, "metadata.json")
	default:
		return filepath.Join(root, projectSeg, id.Dataset, id.Name, "ddl.sql")
	}
}

// Normalize renders id as the canonical three-segment warehouse identifier
// string, padding a missing project with ambientProject. For schema-only
// references the third segment is dropped.
//
// Per the source behavior this function mirrors, @default is resolved only
// when it appears in a filesystem path (see PathToID); identifiers resolved
// from SQL text are never substituted here even if literally "@default".
func Normalize(id ID, ambientProject string, schemaOnly bool) string {
	project := id.Project
	if project == "" {
		project = ambientProject
	}
	if schemaOnly || id.Name == "" {
		return fmt.Sprintf("%s.%s", project, id.Dataset)
	}
	return fmt.Sprintf("%s.%s.%s", project, id.Dataset, id.Name)
}

// ParseReference splits a raw SQL-resolved identifier string (1-3 dotted
// segments) into an ID without any project padding. Used by the analyzer to
// turn raw reference text into a structured id before normalization.
func ParseReference(raw string, kind Kind) (ID, error) {
	raw = strings.Trim(raw, "`\"")
	parts := strings.Split(raw, ".")
	switch len(parts) {
	case 1:
		return ID{}, &InvalidIdentifierError{Raw: raw, Reason: "missing dataset component"}
	case 2:
		return ID{Dataset: parts[0], Name: parts[1], Kind: kind}, nil
	case 3:
		return ID{Project: parts[0], Dataset: parts[1], Name: parts[2], Kind: kind}, nil
	default:
		return ID{}, &InvalidIdentifierError{Raw: raw, Reason: "too many dotted components"}
	}
}

// InvalidIdentifierError reports a SQL-resolved identifier missing a required component.
type InvalidIdentifierError struct {
	Raw    string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Raw, e.Reason)
}
