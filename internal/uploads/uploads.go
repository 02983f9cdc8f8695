// Package uploads manages the folder holding uploaded images, webcam
// captures and detector crops.
package uploads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var ErrFileType = errors.New("file type not allowed")

const (
	stampLayout   = "20060102_150405"
	displayLayout = "2006-01-02 15:04:05"
)

var allowedExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true}

// SupportedFormats lists the allowed extensions as shown to clients.
var SupportedFormats = []string{"PNG", "JPG", "JPEG", "GIF", "BMP"}

// FileInfo is one entry of the history page.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
	Modified string `json:"modified"`

	modTime time.Time
}

type Store struct {
	dir string
}

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Allowed reports whether name carries a permitted image extension.
func Allowed(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(name[i+1:])]
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a safe ASCII base name: path separators
// become underscores, runs of whitespace become one underscore and every
// other character outside [A-Za-z0-9_.-] is dropped. Leading and trailing
// dots and underscores are trimmed.
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// SaveUpload stores a user upload as YYYYMMDD_HHMMSS_<secure name>.
func (s *Store) SaveUpload(original string, at time.Time, data []byte) (string, error) {
	if !Allowed(original) {
		return "", ErrFileType
	}
	safe := SecureFilename(original)
	if !Allowed(safe) {
		// Nothing but the extension survived sanitising.
		safe = "upload." + strings.ToLower(original[strings.LastIndexByte(original, '.')+1:])
	}
	return s.write(fmt.Sprintf("%s_%s", at.Format(stampLayout), safe), data)
}

// SaveCapture stores a webcam frame as <prefix>_YYYYMMDD_HHMMSS_mmm.jpg.
func (s *Store) SaveCapture(prefix string, at time.Time, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s_%03d.jpg", prefix, at.Format(stampLayout), at.Nanosecond()/int(time.Millisecond))
	return s.write(name, data)
}

func (s *Store) write(name string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return name, nil
}

// Path returns the absolute location of a stored file name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// List returns stored images, newest first.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !Allowed(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Filename: e.Name(),
			Size:     fmt.Sprintf("%.1f KB", float64(info.Size())/1024),
			Modified: info.ModTime().Format(displayLayout),
			modTime:  info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].Filename > files[j].Filename
	})
	return files, nil
}
