package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/wingera/schematic-material-viewer/internal/protocol"
)

var ErrNotFound = errors.New("file not found")

// FileInfo describes one stored material list.
type FileInfo struct {
	Filename    string    `json:"filename"`
	Owner       string    `json:"owner"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Size        int64     `json:"size"`
}

// Store is the file-storage collaborator: material lists live as .csv and
// .sti files in one upload folder. The realtime core never calls into
// disk itself; everything durable goes through here via the HTTP API.
type Store struct {
	dir string
	log *zap.Logger
}

func NewStore(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Sanitize strips everything from a client-supplied filename except
// letters, digits, spaces and ".-_". Path separators never survive.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" ._-", r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " .")
}

// Allowed reports whether the extension is one the system accepts.
func Allowed(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".sti":
		return true
	}
	return false
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, Sanitize(name))
}

// WriteRaw stores an uploaded file verbatim and returns its info.
func (s *Store) WriteRaw(name string, r io.Reader) (FileInfo, error) {
	dst := s.path(name)
	f, err := os.Create(dst)
	if err != nil {
		return FileInfo{}, fmt.Errorf("save upload: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return FileInfo{}, fmt.Errorf("save upload: %w", err)
	}
	return FileInfo{
		Filename:  filepath.Base(dst),
		CreatedAt: time.Now(),
		Size:      size,
	}, nil
}

// SaveRows persists rows as an .sti file (appending the extension when
// missing), writing through a temp file so readers never see a torn save.
func (s *Store) SaveRows(name string, rows []protocol.Row) (FileInfo, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".sti") {
		name += ".sti"
	}
	dst := s.path(name)

	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return FileInfo{}, fmt.Errorf("encode rows: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return FileInfo{}, fmt.Errorf("save: %w", err)
	}
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return FileInfo{}, fmt.Errorf("save: %w", err)
	}
	s.log.Info("file saved", zap.String("filename", filepath.Base(dst)), zap.Int("rows", len(rows)))
	return FileInfo{
		Filename:  filepath.Base(dst),
		CreatedAt: time.Now(),
		Size:      int64(len(data)),
	}, nil
}

// Open re-parses a stored file into rows.
func (s *Store) Open(name string) ([]protocol.Row, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(name), ".sti") {
		return ParseSTI(f)
	}
	return ParseCSV(f, s.log)
}

// List enumerates the stored material lists.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
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
			Filename:  e.Name(),
			CreatedAt: info.ModTime(),
			Size:      info.Size(),
		})
	}
	return files, nil
}

// Delete removes a stored file.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}
