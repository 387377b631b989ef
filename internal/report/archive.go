package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidName    = errors.New("invalid report file name")
)

var reportName = regexp.MustCompile(`^report_[\p{L}\p{N}_-]+_[0-9a-f]{8}_\d{8}_\d{6}\.pdf$`)

// FileName builds the archive name for a patient's report generated at at.
// Names for one patient share a prefix and sort chronologically.
func FileName(patientName string, patientID uuid.UUID, at time.Time) string {
	return Prefix(patientName, patientID) + at.Format("20060102_150405") + ".pdf"
}

// Prefix is the part of FileName shared by all of a patient's reports.
func Prefix(patientName string, patientID uuid.UUID) string {
	return fmt.Sprintf("report_%s_%s_", sanitize(patientName), patientID.String()[:8])
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "patient"
	}
	return b.String()
}

// FileArchive keeps generated reports as files in a single directory.
type FileArchive struct {
	dir string
}

func NewFileArchive(dir string) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create report archive: %w", err)
	}
	return &FileArchive{dir: dir}, nil
}

// Save writes data under name, replacing any earlier report with that name.
func (a *FileArchive) Save(name string, data []byte) error {
	if !reportName.MatchString(name) {
		return ErrInvalidName
	}
	tmp, err := os.CreateTemp(a.dir, ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(a.dir, name)); err != nil {
		return fmt.Errorf("failed to store report file: %w", err)
	}
	return nil
}

func (a *FileArchive) Open(name string) ([]byte, error) {
	if !reportName.MatchString(name) {
		return nil, ErrInvalidName
	}
	data, err := os.ReadFile(filepath.Join(a.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	return data, nil
}

// List returns the report names starting with prefix, newest first.
func (a *FileArchive) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	names := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !reportName.MatchString(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
