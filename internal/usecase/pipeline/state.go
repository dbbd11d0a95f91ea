package pipeline

import (
	"sync"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/accounting"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// State is the shared blackboard stages read from and write to. Writes
// go through the locked setters since independent stages run
// concurrently; a stage only reads results of stages it declared as
// dependencies, which are complete by the time it starts.
type State struct {
	Items []agent.Item

	mu          sync.Mutex
	up          agent.Upstream
	captions    map[string]domain.CaptionSet
	validations []domain.ValidationSummary
	perAgent    map[string]accounting.Summary
}

// NewState creates the pipeline state for a batch of photos.
func NewState(items []agent.Item) *State {
	return &State{
		Items:    items,
		captions: make(map[string]domain.CaptionSet),
		perAgent: make(map[string]accounting.Summary),
	}
}

// Upstream returns the accumulated stage results for dependency reads.
func (s *State) Upstream() *agent.Upstream {
	s.mu.Lock()
	defer s.mu.Unlock()
	up := s.up
	return &up
}

// SetMetadata stores the metadata stage's results.
func (s *State) SetMetadata(m map[string]domain.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up.Metadata = m
}

// SetQuality stores the quality stage's results.
func (s *State) SetQuality(q map[string]domain.QualityAssessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up.Quality = q
}

// SetAesthetic stores the aesthetic stage's results.
func (s *State) SetAesthetic(a map[string]domain.AestheticAssessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up.Aesthetic = a
}

// SetDuplicates stores the similarity groups.
func (s *State) SetDuplicates(groups []domain.SimilarityGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up.Duplicates = groups
}

// SetFilters stores the filtering stage's decisions.
func (s *State) SetFilters(f map[string]domain.FilterDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up.Filters = f
}

// SetCaptions stores the caption stage's results.
func (s *State) SetCaptions(c map[string]domain.CaptionSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captions = c
}

// Captions returns the caption results.
func (s *State) Captions() map[string]domain.CaptionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captions
}

// AddValidation appends a stage's validation summary.
func (s *State) AddValidation(v domain.ValidationSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validations = append(s.validations, v)
}

// Validations returns all recorded validation summaries.
func (s *State) Validations() []domain.ValidationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ValidationSummary, len(s.validations))
	copy(out, s.validations)
	return out
}

// AddUsage records an agent's ledger snapshot for cost reporting.
func (s *State) AddUsage(agentName string, summary accounting.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perAgent[agentName] = summary
}

// Usage returns the per-agent ledger snapshots.
func (s *State) Usage() map[string]accounting.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]accounting.Summary, len(s.perAgent))
	for k, v := range s.perAgent {
		out[k] = v
	}
	return out
}
