package agents

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/imaging"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// Similarity classification bounds, as Hamming distances over the
// perceptual hash pair.
const (
	duplicateDistance = 5
	similarDistance   = 15
)

// DuplicatesAgent groups visually similar photos by perceptual hash and
// picks the best member of each group.
type DuplicatesAgent struct {
	workers       int
	hashThreshold int // near-duplicate bound, default 10
}

// NewDuplicatesAgent creates the duplicate detection agent.
func NewDuplicatesAgent(workers, hashThreshold int) *DuplicatesAgent {
	if workers <= 0 {
		workers = 4
	}
	if hashThreshold <= 0 {
		hashThreshold = 10
	}
	return &DuplicatesAgent{workers: workers, hashThreshold: hashThreshold}
}

type hashedItem struct {
	id  string
	sig imaging.Signature
	ok  bool
}

// Run detects similarity groups across the batch. Quality and aesthetic
// scores from upstream pick the best image per group; resolution from
// metadata breaks ties.
func (a *DuplicatesAgent) Run(ctx context.Context, items []agent.Item, up *agent.Upstream) ([]domain.SimilarityGroup, domain.ValidationSummary) {
	hashed := make([]hashedItem, len(items))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range items {
		g.Go(func() error {
			hashed[i].id = items[i].Photo.ID
			img, _, err := imaging.Decode(items[i].Raw)
			if err != nil {
				return nil
			}
			sig, err := imaging.ComputeSignature(img)
			if err != nil {
				return nil
			}
			hashed[i].sig = sig
			hashed[i].ok = true
			return nil
		})
	}
	_ = g.Wait()

	var issues []string
	for _, h := range hashed {
		if !h.ok {
			issues = append(issues, fmt.Sprintf("%s: hash computation failed", h.id))
		}
	}

	groups := a.group(hashed, up)

	summary := fmt.Sprintf("Found %d similarity groups across %d images", len(groups), len(items))
	return groups, domain.NewValidationSummary("duplicates", "grouping", summary, issues, len(items))
}

// group runs a greedy single pass: each ungrouped image seeds a group
// and absorbs every later ungrouped image within the similarity bound.
func (a *DuplicatesAgent) group(hashed []hashedItem, up *agent.Upstream) []domain.SimilarityGroup {
	grouped := make(map[string]bool)
	var groups []domain.SimilarityGroup

	for i, first := range hashed {
		if !first.ok || grouped[first.id] {
			continue
		}

		ids := []string{first.id}
		simType := "duplicate"
		metric := 0.0

		for _, second := range hashed[i+1:] {
			if !second.ok || grouped[second.id] {
				continue
			}
			dist, err := first.sig.Distance(second.sig)
			if err != nil || dist > similarDistance {
				continue
			}

			switch {
			case dist <= duplicateDistance:
				simType = "duplicate"
			case dist <= a.hashThreshold:
				simType = "near-duplicate"
			default:
				simType = "similar"
			}

			ids = append(ids, second.id)
			metric = float64(dist)
			grouped[second.id] = true
		}

		if len(ids) < 2 {
			continue
		}
		grouped[first.id] = true
		groups = append(groups, domain.SimilarityGroup{
			GroupID:          fmt.Sprintf("group_%d", len(groups)),
			ImageIDs:         ids,
			BestImage:        a.selectBest(ids, up),
			SimilarityType:   simType,
			SimilarityMetric: metric,
		})
	}

	return groups
}

// selectBest scores group members as technical*0.4 + aesthetic*0.6 and
// prefers higher resolution on ties. Missing upstream scores default to
// the neutral 3.
func (a *DuplicatesAgent) selectBest(ids []string, up *agent.Upstream) string {
	best := ids[0]
	bestScore := -1.0
	bestResolution := -1

	for _, id := range ids {
		technical, aesthetic := 3, 3
		resolution := 0
		if up != nil {
			if q, ok := up.Quality[id]; ok {
				technical = q.QualityScore
			}
			if ae, ok := up.Aesthetic[id]; ok {
				aesthetic = ae.OverallAesthetic
			}
			if m, ok := up.Metadata[id]; ok {
				resolution = m.Width * m.Height
			}
		}

		score := float64(technical)*0.4 + float64(aesthetic)*0.6
		if score > bestScore || (score == bestScore && resolution > bestResolution) {
			best = id
			bestScore = score
			bestResolution = resolution
		}
	}
	return best
}
