package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assaymerge/internal/errors"
	"assaymerge/pkg/contracts/domain"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("test content"), 0644))
	}
}

func TestFindSpreadsheets(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected []string
	}{
		{
			name:     "mixed file types",
			files:    []string{"b_movement.xlsx", "a_rotation.csv", "notes.txt", "old.xls", "c_heading.XLSM"},
			expected: []string{"a_rotation.csv", "b_movement.xlsx", "c_heading.XLSM"},
		},
		{
			name:     "lock files are skipped",
			files:    []string{"~$movement.xlsx", "movement.xlsx"},
			expected: []string{"movement.xlsx"},
		},
		{
			name:  "empty directory",
			files: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			touch(t, tmpDir, tt.files...)

			files, err := NewDiscovery(tmpDir).FindSpreadsheets(".")
			require.NoError(t, err)

			var names []string
			for _, f := range files {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(tmpDir, ".", f.Name), f.Path)
				assert.Greater(t, f.Size, int64(0))
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindSpreadsheets_MissingDirectory(t *testing.T) {
	_, err := NewDiscovery("").FindSpreadsheets(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestClassifyFileName(t *testing.T) {
	tests := []struct {
		name string
		kind domain.TableKind
		ok   bool
	}{
		{"Exp1 Movement.xlsx", domain.TableMovement, true},
		{"distance_velocity.csv", domain.TableMovement, true},
		{"TurnAngle.xlsx", domain.TableTurning, true},
		{"heading-meander.xlsx", domain.TableTurning, true},
		{"Rotation 24h.xlsx", domain.TableRotation, true},
		{"movement_and_rotation.xlsx", 0, false},
		{"merged_experiment_data.csv", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := ClassifyFileName(tt.name)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestDiscoverSources(t *testing.T) {
	tmpDir := t.TempDir()
	touch(t, tmpDir, "run1_movement.xlsx", "run1_heading.xlsx", "run1_rotation.csv", "merged_experiment_data.csv")

	sources, err := NewDiscovery("").DiscoverSources(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "run1_movement.xlsx"), sources.Movement)
	assert.Equal(t, filepath.Join(tmpDir, "run1_heading.xlsx"), sources.Turning)
	assert.Equal(t, filepath.Join(tmpDir, "run1_rotation.csv"), sources.Rotation)
	assert.Empty(t, sources.Missing())
}

func TestDiscoverSources_Errors(t *testing.T) {
	t.Run("missing table", func(t *testing.T) {
		tmpDir := t.TempDir()
		touch(t, tmpDir, "movement.xlsx", "rotation.xlsx")

		_, err := NewDiscovery(tmpDir).DiscoverSources("")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
		assert.Contains(t, err.Error(), "turning")
	})

	t.Run("ambiguous table", func(t *testing.T) {
		tmpDir := t.TempDir()
		touch(t, tmpDir, "movement_day1.xlsx", "movement_day2.xlsx", "turn.xlsx", "rotation.xlsx")

		_, err := NewDiscovery(tmpDir).DiscoverSources("")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
		assert.Contains(t, err.Error(), "movement_day1.xlsx")
	})
}
