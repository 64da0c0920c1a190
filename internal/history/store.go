package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("history entry not found")
	ErrWriteFailed = errors.New("history write failed")
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	DefaultMaxEntries = 1000
	DefaultListLimit  = 100
	MaxListLimit      = 500
)

// TemplateMeta is the template snapshot recorded with each entry, so history
// stays meaningful after a template is edited or deleted.
type TemplateMeta struct {
	Name string `json:"name"`
	Size string `json:"size"`
}

// Entry is one job attempt. Entries are never mutated after append.
type Entry struct {
	ID               string            `json:"id"`
	Timestamp        string            `json:"timestamp"`
	Template         string            `json:"template"`
	TemplateMetadata *TemplateMeta     `json:"template_metadata,omitempty"`
	LabelSize        string            `json:"label_size,omitempty"`
	PrinterID        int64             `json:"printer_id"`
	PrinterName      string            `json:"printer_name,omitempty"`
	Variables        map[string]string `json:"variables,omitempty"`
	Quantity         int               `json:"quantity"`
	PreviewFilename  string            `json:"preview_filename,omitempty"`
	Status           string            `json:"status"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	RenderedZPL      string            `json:"rendered_zpl,omitempty"`
	User             string            `json:"user,omitempty"`
	ReprintOf        string            `json:"reprint_of,omitempty"`
}

// Filter narrows List results. Zero values mean "no constraint"; date
// bounds are inclusive RFC 3339 strings.
type Filter struct {
	Template  string
	PrinterID int64
	Status    string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

func (f Filter) matches(e Entry) bool {
	if f.Template != "" && e.Template != f.Template {
		return false
	}
	if f.PrinterID != 0 && e.PrinterID != f.PrinterID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.StartDate != "" && e.Timestamp < f.StartDate {
		return false
	}
	if f.EndDate != "" && e.Timestamp > f.EndDate {
		return false
	}
	return true
}

type logFile struct {
	Entries     []Entry `json:"entries"`
	LastUpdated string  `json:"last_updated"`
}

// Store is the durable job-attempt log: one JSON document, atomically
// replaced on every write, FIFO-rotated at maxEntries. All access is
// serialized through one mutex; this process is the only writer.
type Store struct {
	path       string
	maxEntries int
	mu         sync.Mutex
	logger     *zap.Logger
}

func NewStore(path string, maxEntries int, logger *zap.Logger) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	s := &Store{path: path, maxEntries: maxEntries, logger: logger}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(&logFile{Entries: []Entry{}}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() (*logFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &logFile{Entries: []Entry{}}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var doc logFile
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("history file malformed, starting over", zap.Error(err))
		return &logFile{Entries: []Entry{}}, nil
	}
	return &doc, nil
}

// save lands the document through a temp file, fsync and an atomic rename,
// so a crash leaves either the old file or the new one, never a torn mix.
func (s *Store) save(doc *logFile) error {
	doc.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// Append records one job attempt, assigning an id and timestamp when the
// caller did not, and rotates out the oldest entries beyond the cap.
func (s *Store) Append(e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	doc.Entries = append(doc.Entries, e)
	if len(doc.Entries) > s.maxEntries {
		doc.Entries = doc.Entries[len(doc.Entries)-s.maxEntries:]
	}

	if err := s.save(doc); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns matching entries newest first, plus the total match count
// before pagination. Rendered ZPL is stripped from the returned copies.
func (s *Store) List(f Filter) ([]Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, 0, err
	}

	var filtered []Entry
	for _, e := range doc.Entries {
		if f.matches(e) {
			filtered = append(filtered, e)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp > filtered[j].Timestamp
	})

	total := len(filtered)

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]Entry, end-offset)
	copy(page, filtered[offset:end])
	redactZPL(page)

	return page, total, nil
}

// Get returns the full entry, rendered ZPL included.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range doc.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Entries[:0]
	for _, e := range doc.Entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(doc.Entries) {
		return ErrNotFound
	}
	doc.Entries = kept

	return s.save(doc)
}

// Search does a case-insensitive substring match, either against one named
// field or against the whole serialized entry. Results come back newest
// first with ZPL stripped.
func (s *Store) Search(query, field string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var matched []Entry
	for _, e := range doc.Entries {
		if field != "" {
			if strings.Contains(strings.ToLower(fieldValue(e, field)), q) {
				matched = append(matched, e)
			}
			continue
		}
		raw, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(string(raw)), q) {
			matched = append(matched, e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp > matched[j].Timestamp
	})
	redactZPL(matched)

	return matched, nil
}

// Cleanup drops entries older than the cutoff and reports how many went.
// The file is rewritten only when something was actually removed.
func (s *Store) Cleanup(olderThanDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)
	kept := doc.Entries[:0]
	for _, e := range doc.Entries {
		if e.Timestamp >= cutoff {
			kept = append(kept, e)
		}
	}

	deleted := len(doc.Entries) - len(kept)
	if deleted == 0 {
		return 0, nil
	}
	doc.Entries = kept

	if err := s.save(doc); err != nil {
		return 0, err
	}

	s.logger.Info("history cleanup finished",
		zap.Int("deleted", deleted),
		zap.Int("older_than_days", olderThanDays))
	return deleted, nil
}

func (s *Store) all() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

func redactZPL(entries []Entry) {
	for i := range entries {
		entries[i].RenderedZPL = ""
	}
}

func fieldValue(e Entry, field string) string {
	switch field {
	case "id":
		return e.ID
	case "template":
		return e.Template
	case "printer_id":
		return strconv.FormatInt(e.PrinterID, 10)
	case "printer_name":
		return e.PrinterName
	case "status":
		return e.Status
	case "user":
		return e.User
	case "error_message":
		return e.ErrorMessage
	case "label_size":
		return e.LabelSize
	default:
		return ""
	}
}
