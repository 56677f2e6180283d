package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

type recordingSaver struct {
	saved []string
}

func (r *recordingSaver) Save(ctx context.Context, snap *entities.Snapshot) error {
	r.saved = append(r.saved, snap.InvestigationID)
	return nil
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImportFiles(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.json", `{"investigation_id": "inv-b", "companies": [{"id": "c1"}]}`)
	a := writeFile(t, dir, "a.json", `{"investigation_id": "inv-a"}`)

	dst := &recordingSaver{}
	n, err := importFiles(context.Background(), dst, []string{b, a}, logging.NewNopLogger())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"inv-a", "inv-b"}, dst.saved)
}

func TestImportFiles_StopsOnInvalidSnapshot(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "1.json", `{"investigation_id": "inv-1"}`)
	bad := writeFile(t, dir, "2.json", `{"investigation_id": "inv-2", "properties": [{"id": "p1", "area_hectares": -5}]}`)
	never := writeFile(t, dir, "3.json", `{"investigation_id": "inv-3"}`)

	dst := &recordingSaver{}
	n, err := importFiles(context.Background(), dst, []string{good, bad, never}, logging.NewNopLogger())

	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
	assert.ErrorContains(t, err, "2.json")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"inv-1"}, dst.saved)
}
