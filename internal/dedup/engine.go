// Package dedup decides whether a new citizen report duplicates an already
// open report nearby, and maintains the duplicate clusters that accumulate
// against each canonical parent report.
//
// Each check is request-scoped: one run of locate -> score -> decide against
// the external store, with no shared in-process state between runs. Two
// reports submitted concurrently for the same physical issue can both run the
// candidate lookup before either has persisted its final status, so both may
// be created as non-duplicates. The store provides row-level atomicity only;
// this race is a known, accepted limitation.
package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cividup/cividup/internal/cache"
	"github.com/cividup/cividup/internal/config"
	"github.com/cividup/cividup/internal/geo"
	"github.com/cividup/cividup/internal/match"
	"github.com/cividup/cividup/internal/store"
	"github.com/cividup/cividup/pkg/models"
)

var (
	// ErrMissingFingerprint rejects a check with no fingerprint to compare.
	ErrMissingFingerprint = errors.New("fingerprint is required")
	// ErrInvalidCoordinates rejects a check whose coordinates are outside
	// decimal-degree range.
	ErrInvalidCoordinates = errors.New("coordinates out of range")
	// ErrClusterInconsistent signals that a report was marked duplicate but
	// the cluster bookkeeping failed. The mark stands; the cluster update
	// may be retried or reconciled out of band.
	ErrClusterInconsistent = errors.New("cluster update failed after duplicate mark")
)

// Candidate is one scored duplicate candidate. Distance is rounded to the
// nearest meter, Similarity and MatchScore to the nearest 0.1.
type Candidate struct {
	Report     *models.Report `json:"report"`
	DistanceM  float64        `json:"distance_m"`
	Similarity float64        `json:"similarity"`
	MatchScore float64        `json:"match_score"`
}

// Result is the outcome of a non-mutating duplicate query.
type Result struct {
	IsDuplicate bool        `json:"is_duplicate"`
	Duplicates  []Candidate `json:"duplicates"`
	Count       int         `json:"count"`
}

// Verdict is the outcome of the mutating check-and-mark path.
type Verdict struct {
	IsDuplicate bool       `json:"is_duplicate"`
	DuplicateOf *uuid.UUID `json:"duplicate_of,omitempty"`
	MatchScore  *float64   `json:"match_score,omitempty"`
}

// Engine runs the duplicate-detection pipeline. Construct with NewEngine;
// all configuration and collaborators are explicit, there is no package
// state.
type Engine struct {
	cfg   config.DedupConfig
	store store.Store
	cache cache.Cache
}

// NewEngine creates an Engine with the given configuration, store, and cache.
func NewEngine(cfg config.DedupConfig, s store.Store, c cache.Cache) *Engine {
	return &Engine{cfg: cfg, store: s, cache: c}
}

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// FindDuplicates runs the read-only duplicate query: fetch bounding-box
// candidates, discard any farther than the radius (the box over-includes),
// discard any below the similarity threshold, score and rank the rest.
// Safe to call repeatedly; never mutates storage.
//
// radius is in meters; pass nil to use the configured distance threshold.
func (e *Engine) FindDuplicates(ctx context.Context, fingerprint string, lat, lon float64, radius *float64) (*Result, error) {
	if fingerprint == "" {
		return nil, ErrMissingFingerprint
	}
	if !validCoordinates(lat, lon) {
		return nil, ErrInvalidCoordinates
	}

	r := e.cfg.DistanceThresholdM
	if radius != nil && *radius > 0 {
		r = *radius
	}

	box := geo.BoundingBox(lat, lon, r)
	candidates, err := e.store.FindCandidates(ctx, store.CandidateQuery{
		MinLat:           box.MinLat,
		MaxLat:           box.MaxLat,
		MinLon:           box.MinLon,
		MaxLon:           box.MaxLon,
		ExcludedStatuses: models.ExcludedStatuses(),
		Limit:            e.cfg.CandidateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("locate candidates: %w", err)
	}

	weights := match.Weights{Similarity: e.cfg.SimilarityWeight, Distance: e.cfg.DistanceWeight}

	duplicates := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		dist := geo.DistanceMeters(lat, lon, c.Latitude, c.Longitude)
		if dist > r {
			// Inside the bounding box but outside the circle.
			continue
		}

		sim := match.Similarity(fingerprint, c.Fingerprint)
		if sim < e.cfg.SimilarityThreshold {
			continue
		}

		score := match.Score(sim, match.DistanceScore(dist, r), weights)
		duplicates = append(duplicates, Candidate{
			Report:     c,
			DistanceM:  match.RoundMeters(dist),
			Similarity: match.RoundTenth(sim),
			MatchScore: match.RoundTenth(score),
		})
	}

	// Candidates arrive newest first, so a stable sort keeps ties in
	// recency order.
	sort.SliceStable(duplicates, func(i, j int) bool {
		return duplicates[i].MatchScore > duplicates[j].MatchScore
	})

	return &Result{
		IsDuplicate: len(duplicates) > 0,
		Duplicates:  duplicates,
		Count:       len(duplicates),
	}, nil
}

// CheckAndMark runs the duplicate query for a new report and, if the
// top-ranked candidate's rounded match score clears the auto-merge bar
// (inclusive), marks the report as a duplicate of it and updates the
// cluster for that parent.
//
// Matches below the bar produce {IsDuplicate: false} with no mutation, even
// when FindDuplicates would list them: the gap between the similarity
// pre-filter and the auto-merge bar surfaces near-matches for human review
// without forcing a merge.
//
// A cluster failure after a successful mark returns the verdict together
// with an error wrapping ErrClusterInconsistent.
func (e *Engine) CheckAndMark(ctx context.Context, reportID uuid.UUID, fingerprint string, lat, lon float64) (*Verdict, error) {
	res, err := e.FindDuplicates(ctx, fingerprint, lat, lon, nil)
	if err != nil {
		return nil, err
	}

	// The report under check may already be stored as open, in which case it
	// comes back as its own strongest candidate (distance 0, similarity 100).
	// A report never duplicates itself.
	best, found := bestOther(res.Duplicates, reportID)
	if !found || best.MatchScore < e.cfg.AutoMergeScore {
		return &Verdict{IsDuplicate: false}, nil
	}

	parent := best.Report

	if err := e.store.MarkReportDuplicate(ctx, reportID, parent.ID); err != nil {
		return nil, fmt.Errorf("mark duplicate: %w", err)
	}

	verdict := &Verdict{
		IsDuplicate: true,
		DuplicateOf: &parent.ID,
		MatchScore:  &best.MatchScore,
	}

	if err := e.upsertCluster(ctx, parent); err != nil {
		slog.Error("cluster bookkeeping failed after duplicate mark",
			"report_id", reportID, "parent_id", parent.ID, "error", err)
		return verdict, fmt.Errorf("%w: %v", ErrClusterInconsistent, err)
	}

	e.appendAuditEntry(ctx, reportID, best)
	e.invalidateClusterList(ctx)

	return verdict, nil
}

// bestOther returns the highest-ranked candidate that is not the report
// itself. duplicates is already sorted by match score.
func bestOther(duplicates []Candidate, reportID uuid.UUID) (Candidate, bool) {
	for _, c := range duplicates {
		if c.Report.ID != reportID {
			return c, true
		}
	}
	return Candidate{}, false
}

// upsertCluster increments the parent's cluster count, creating the cluster
// with report_count = 1 on first use. The location and radius are frozen at
// creation time.
func (e *Engine) upsertCluster(ctx context.Context, parent *models.Report) error {
	_, err := e.store.GetClusterByParent(ctx, parent.ID)
	switch {
	case err == nil:
		return e.store.IncrementClusterCount(ctx, parent.ID)
	case errors.Is(err, store.ErrNotFound):
		now := time.Now().UTC()
		insertErr := e.store.InsertCluster(ctx, &models.DuplicateCluster{
			ID:             uuid.New(),
			ParentReportID: parent.ID,
			Latitude:       parent.Latitude,
			Longitude:      parent.Longitude,
			Radius:         e.cfg.DistanceThresholdM,
			ReportCount:    1,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if errors.Is(insertErr, store.ErrDuplicateKey) {
			// Lost a create race with a concurrent merge.
			return e.store.IncrementClusterCount(ctx, parent.ID)
		}
		return insertErr
	default:
		return err
	}
}

// appendAuditEntry is fire-and-forget: a failed append is logged, never
// rolled back into the caller's result.
func (e *Engine) appendAuditEntry(ctx context.Context, reportID uuid.UUID, best Candidate) {
	entry := &models.ActivityEntry{
		ID:       uuid.New(),
		ReportID: reportID,
		Action:   models.ActionMarkedDuplicate,
		Details: fmt.Sprintf("marked as duplicate of %s (match score %.1f, distance %.0f m, similarity %.1f%%)",
			best.Report.ID, best.MatchScore, best.DistanceM, best.Similarity),
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.AppendActivity(ctx, entry); err != nil {
		slog.Warn("activity append failed", "report_id", reportID, "error", err)
	}
}

func (e *Engine) invalidateClusterList(ctx context.Context) {
	if err := e.cache.Delete(ctx, cache.ClusterListKey); err != nil {
		slog.Warn("cluster list cache invalidation failed", "error", err)
	}
}

// ListClusters returns all clusters with more than one attached report,
// joined with the parent report's descriptive fields, largest first. Served
// from a short-TTL cache that merges invalidate.
func (e *Engine) ListClusters(ctx context.Context) ([]*models.ClusterSummary, error) {
	key := cache.ClusterListKey
	if raw, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		var cached []*models.ClusterSummary
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	clusters, err := e.store.ListClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	if raw, err := json.Marshal(clusters); err == nil {
		if err := e.cache.Set(ctx, key, raw, e.cfg.ClusterCacheTTL); err != nil {
			slog.Warn("cluster list cache write failed", "error", err)
		}
	}

	return clusters, nil
}
