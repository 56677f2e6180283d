package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

// FileSource reads one <investigation_id>.json document per investigation
// from a directory. Each call re-reads the file, so edits are picked up.
type FileSource struct {
	dataDir string
}

// NewFileSource creates a source over dataDir, which must exist.
func NewFileSource(dataDir string) (*FileSource, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot directory: %s is not a directory", dataDir)
	}
	return &FileSource{dataDir: dataDir}, nil
}

// Snapshot loads <dataDir>/<id>.json. A document without investigation_id
// takes the id from the file name; a different id is a validation error.
func (f *FileSource) Snapshot(ctx context.Context, id string) (*entities.Snapshot, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := LoadFile(filepath.Join(f.dataDir, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}

	switch snap.InvestigationID {
	case "":
		snap.InvestigationID = id
	case id:
	default:
		return nil, &validation.ValidationError{
			Field:  "investigation_id",
			Reason: fmt.Sprintf("document declares %q, file is named %q", snap.InvestigationID, id),
		}
	}
	return snap, nil
}

// Ping checks the directory is still readable.
func (f *FileSource) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.ReadDir(f.dataDir)
	return err
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) Close() error { return nil }

// LoadFile decodes a snapshot JSON document. Unknown fields are rejected so
// typos in field names do not silently drop data.
func LoadFile(path string) (*entities.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec := json.NewDecoder(file)
	dec.DisallowUnknownFields()
	var snap entities.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, &validation.ValidationError{Field: filepath.Base(path), Reason: fmt.Sprintf("invalid snapshot document: %v", err)}
	}
	return &snap, nil
}
