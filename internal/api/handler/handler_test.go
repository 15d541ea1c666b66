package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"

	"github.com/cividup/cividup/internal/config"
	"github.com/cividup/cividup/internal/store"
	"github.com/cividup/cividup/pkg/models"
)

// fakeStore is an in-memory Store used by the handler tests.
type fakeStore struct {
	reports    map[uuid.UUID]*models.Report
	candidates []*models.Report
	clusters   map[uuid.UUID]*models.DuplicateCluster
	summaries  []*models.ClusterSummary
	activities []*models.ActivityEntry
	keys       []*models.APIKey

	createErr error
	listErr   error

	// candidatesFromStored makes FindCandidates return every stored report,
	// the way the real store hands back freshly inserted rows.
	candidatesFromStored bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reports:  make(map[uuid.UUID]*models.Report),
		clusters: make(map[uuid.UUID]*models.DuplicateCluster),
	}
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }

func (s *fakeStore) CreateReport(_ context.Context, r *models.Report) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.reports[r.ID] = r
	return nil
}

func (s *fakeStore) GetReportByID(_ context.Context, id uuid.UUID) (*models.Report, error) {
	r, ok := s.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) FindCandidates(_ context.Context, _ store.CandidateQuery) ([]*models.Report, error) {
	if !s.candidatesFromStored {
		return s.candidates, nil
	}
	out := make([]*models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) MarkReportDuplicate(_ context.Context, id, duplicateOf uuid.UUID) error {
	r, ok := s.reports[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = models.StatusDuplicate
	r.DuplicateOf = &duplicateOf
	return nil
}

func (s *fakeStore) GetClusterByParent(_ context.Context, parentID uuid.UUID) (*models.DuplicateCluster, error) {
	c, ok := s.clusters[parentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) InsertCluster(_ context.Context, c *models.DuplicateCluster) error {
	s.clusters[c.ParentReportID] = c
	return nil
}

func (s *fakeStore) IncrementClusterCount(_ context.Context, parentID uuid.UUID) error {
	if c, ok := s.clusters[parentID]; ok {
		c.ReportCount++
	}
	return nil
}

func (s *fakeStore) ListClusters(_ context.Context) ([]*models.ClusterSummary, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.summaries, nil
}

func (s *fakeStore) AppendActivity(_ context.Context, e *models.ActivityEntry) error {
	s.activities = append(s.activities, e)
	return nil
}

func (s *fakeStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *fakeStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *fakeStore) CreateAPIKey(_ context.Context, k *models.APIKey) error {
	s.keys = append(s.keys, k)
	return nil
}
func (s *fakeStore) ListAPIKeys(_ context.Context) ([]*models.APIKey, error) { return s.keys, nil }
func (s *fakeStore) RevokeAPIKey(_ context.Context, _ uuid.UUID) error       { return nil }

var _ store.Store = (*fakeStore)(nil)

// fakeCache is a map-backed Cache.
type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Ping(_ context.Context) error { return nil }
func (c *fakeCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

func newGetRequest() (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()
}

func testDedupConfig() config.DedupConfig {
	return config.DedupConfig{
		DistanceThresholdM:  100,
		SimilarityThreshold: 80,
		AutoMergeScore:      85,
		CandidateLimit:      100,
		SimilarityWeight:    0.6,
		DistanceWeight:      0.4,
		ClusterCacheTTL:     30 * time.Second,
	}
}
