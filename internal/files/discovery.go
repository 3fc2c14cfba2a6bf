package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"assaymerge/internal/errors"
	"assaymerge/pkg/contracts/domain"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// sourceKeywords are matched against lower-cased file names
var sourceKeywords = map[domain.TableKind][]string{
	domain.TableMovement: {"movement", "distance"},
	domain.TableTurning:  {"turn", "heading", "meander"},
	domain.TableRotation: {"rotation"},
}

var spreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// SourceFiles holds the paths of the three exports of one experiment
type SourceFiles struct {
	Movement string
	Turning  string
	Rotation string
}

// Path returns the file for a table kind
func (s SourceFiles) Path(kind domain.TableKind) string {
	switch kind {
	case domain.TableMovement:
		return s.Movement
	case domain.TableTurning:
		return s.Turning
	case domain.TableRotation:
		return s.Rotation
	default:
		return ""
	}
}

func (s *SourceFiles) set(kind domain.TableKind, path string) {
	switch kind {
	case domain.TableMovement:
		s.Movement = path
	case domain.TableTurning:
		s.Turning = path
	case domain.TableRotation:
		s.Rotation = path
	}
}

// Missing lists the table kinds without a file, in join order
func (s SourceFiles) Missing() []string {
	var missing []string
	for _, kind := range domain.AllTableKinds {
		if s.Path(kind) == "" {
			missing = append(missing, kind.String())
		}
	}
	return missing
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindSpreadsheets lists .xlsx, .xlsm and .csv files in dir, sorted by name.
// Office lock files ("~$...") are ignored.
func (d *Discovery) FindSpreadsheets(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("directory %s", fullPath))
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "~$") || !spreadsheetExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// ClassifyFileName returns the table kind a file name points at. It fails
// when the name matches no keyword set or more than one.
func ClassifyFileName(name string) (domain.TableKind, bool) {
	lower := strings.ToLower(filepath.Base(name))

	var matched []domain.TableKind
	for _, kind := range domain.AllTableKinds {
		for _, keyword := range sourceKeywords[kind] {
			if strings.Contains(lower, keyword) {
				matched = append(matched, kind)
				break
			}
		}
	}
	if len(matched) != 1 {
		return 0, false
	}
	return matched[0], true
}

// DiscoverSources picks the movement, turning and rotation exports in dir by
// file name. Two candidates for one table is a validation error; a table
// without a candidate is reported as not found.
func (d *Discovery) DiscoverSources(dir string) (SourceFiles, error) {
	var sources SourceFiles

	files, err := d.FindSpreadsheets(dir)
	if err != nil {
		return sources, err
	}

	candidates := make(map[domain.TableKind][]string)
	for _, f := range files {
		if kind, ok := ClassifyFileName(f.Name); ok {
			candidates[kind] = append(candidates[kind], f.Path)
		}
	}

	for _, kind := range domain.AllTableKinds {
		paths := candidates[kind]
		if len(paths) > 1 {
			names := make([]string, len(paths))
			for i, p := range paths {
				names[i] = filepath.Base(p)
			}
			return SourceFiles{}, errors.NewAppValidationError(fmt.Sprintf(
				"more than one %s file in %s: %s", kind, d.resolve(dir), strings.Join(names, ", "))).
				WithContext("table", kind.String())
		}
		if len(paths) == 1 {
			sources.set(kind, paths[0])
		}
	}

	if missing := sources.Missing(); len(missing) > 0 {
		return SourceFiles{}, errors.NewAppError(errors.ErrTypeNotFound,
			fmt.Sprintf("no %s file found in %s", strings.Join(missing, ", "), d.resolve(dir)), nil).
			WithContext("missing", missing)
	}
	return sources, nil
}
