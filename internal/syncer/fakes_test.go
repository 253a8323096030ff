package syncer

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	gosync "sync"
	"time"

	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/models"
	"github.com/nahidhasan98/orgsync/internal/store"
)

// fakeFetcher serves canned file bodies and records the fetch order
type fakeFetcher struct {
	files map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, filename string) ([]byte, error) {
	f.calls = append(f.calls, filename)
	if err, ok := f.errs[filename]; ok {
		return nil, err
	}
	body, ok := f.files[filename]
	if !ok {
		return nil, errors.ProtocolStatus("https://raw.example.com/"+filename, 404)
	}
	return []byte(body), nil
}

type fakeLister struct {
	files []string
	err   error
}

func (l *fakeLister) ListJSONFiles(context.Context) ([]string, error) {
	return l.files, l.err
}

// staticResolver returns a fixed name per registration number, or the fallback
type staticResolver struct {
	names map[string]string
}

func (r *staticResolver) ResolveName(_ context.Context, _, number, fallback string) string {
	if name, ok := r.names[number]; ok {
		return name
	}
	return fallback
}

// recordingResolver remembers the identity of every lookup
type recordingResolver struct {
	lookups [][3]string
}

func (r *recordingResolver) ResolveName(_ context.Context, jurisdiction, number, fallback string) string {
	r.lookups = append(r.lookups, [3]string{jurisdiction, number, fallback})
	return "ACME LIMITED"
}

// memStore is an in-memory Store that counts writes
type memStore struct {
	mu         gosync.Mutex
	records    map[string]*models.OrganisationRecord
	nextID     int64
	writes     int
	failCreate error
	failFind   error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.OrganisationRecord{}}
}

func (s *memStore) FindByFilename(_ context.Context, filename string) (*models.OrganisationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failFind != nil {
		return nil, s.failFind
	}
	rec, ok := s.records[filename]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) List(context.Context) ([]*models.OrganisationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.OrganisationRecord, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (s *memStore) Create(_ context.Context, rec *models.OrganisationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreate != nil {
		return s.failCreate
	}
	if _, exists := s.records[rec.Filename]; exists {
		return fmt.Errorf("UNIQUE constraint failed: organisations.filename")
	}
	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	s.records[rec.Filename] = &cp
	s.writes++
	return nil
}

func (s *memStore) Update(_ context.Context, rec *models.OrganisationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, existing := range s.records {
		if existing.ID == rec.ID {
			delete(s.records, name)
			rec.UpdatedAt = time.Now()
			cp := *rec
			s.records[rec.Filename] = &cp
			s.writes++
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *memStore) Destroy(_ context.Context, rec *models.OrganisationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.Filename]; !ok {
		return store.ErrNotFound
	}
	delete(s.records, rec.Filename)
	s.writes++
	return nil
}

func (s *memStore) Truncate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = map[string]*models.OrganisationRecord{}
	return nil
}

func (s *memStore) get(filename string) *models.OrganisationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[filename]
}

type recordingNotifier struct {
	mu      gosync.Mutex
	reports []*BatchReport
	err     error
}

func (n *recordingNotifier) NotifyBatch(_ context.Context, report *BatchReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reports)
}

var errConnRefused = stderrors.New("dial tcp: connection refused")
