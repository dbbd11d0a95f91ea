package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// FilterThresholds configures the minimum scores an image must reach to
// pass filtering.
type FilterThresholds struct {
	MinTechnicalScore int
	MinAestheticScore int
}

// DefaultFilterThresholds returns the stock minimum scores.
func DefaultFilterThresholds() FilterThresholds {
	return FilterThresholds{MinTechnicalScore: 3, MinAestheticScore: 3}
}

// subjectCategories lists subject categories with the keywords that
// select them from the photo's file path. Order matters: the first
// matching category wins.
var subjectCategories = []struct {
	name     string
	keywords []string
}{
	{"Landscape", []string{"mountain", "beach", "forest", "lake", "valley", "canyon", "desert"}},
	{"Architecture", []string{"building", "church", "temple", "monument", "bridge", "castle"}},
	{"Urban", []string{"city", "street", "skyline", "traffic", "metro", "downtown"}},
	{"People", []string{"portrait", "person", "group", "selfie", "crowd"}},
	{"Food", []string{"meal", "restaurant", "dish", "cuisine", "dining"}},
	{"Cultural", []string{"festival", "ceremony", "traditional", "art", "museum"}},
	{"Wildlife", []string{"animal", "bird", "safari", "nature"}},
	{"Adventure", []string{"hiking", "climbing", "diving", "skiing"}},
}

// FilteringAgent decides which images pass the configured score
// thresholds and categorises them by subject, time of day, and location.
// It works entirely from upstream results; no model calls are made.
type FilteringAgent struct {
	thresholds FilterThresholds
}

// NewFilteringAgent creates the filtering agent.
func NewFilteringAgent(thresholds FilterThresholds) *FilteringAgent {
	if thresholds.MinTechnicalScore <= 0 && thresholds.MinAestheticScore <= 0 {
		thresholds = DefaultFilterThresholds()
	}
	return &FilteringAgent{thresholds: thresholds}
}

// Run filters and categorises every item. Images below the thresholds
// are flagged, never dropped.
func (a *FilteringAgent) Run(ctx context.Context, items []agent.Item, up *agent.Upstream) (map[string]domain.FilterDecision, domain.ValidationSummary) {
	out := make(map[string]domain.FilterDecision, len(items))
	var issues []string
	passed, flagged := 0, 0

	for _, item := range items {
		d := a.decide(item, up)
		out[d.ImageID] = d
		if d.PassesFilter {
			passed++
		}
		if d.Flagged {
			flagged++
			issues = append(issues, fmt.Sprintf("%s: %s", d.ImageID, strings.Join(d.Flags, ", ")))
		}
	}

	summary := fmt.Sprintf("Categorized %d images: %d passed filters, %d flagged",
		len(items), passed, flagged)
	return out, domain.NewValidationSummary("filtering", "classification", summary, issues, len(items))
}

func (a *FilteringAgent) decide(item agent.Item, up *agent.Upstream) domain.FilterDecision {
	id := item.Photo.ID

	technical, aesthetic := 3, 3
	var meta domain.Metadata
	if up != nil {
		if q, ok := up.Quality[id]; ok {
			technical = q.QualityScore
		}
		if ae, ok := up.Aesthetic[id]; ok {
			aesthetic = ae.OverallAesthetic
		}
		meta = up.Metadata[id]
	}

	var flags []string
	if technical < a.thresholds.MinTechnicalScore {
		flags = append(flags, "low_quality")
	}
	if aesthetic < a.thresholds.MinAestheticScore {
		flags = append(flags, "low_aesthetic")
	}
	if meta.GPS == nil {
		flags = append(flags, "missing_gps")
	}
	if meta.CaptureDatetime == "" {
		flags = append(flags, "missing_datetime")
	}

	category, subcategories := categorizeBySubject(item)
	if category == "Uncategorized" {
		flags = append(flags, "uncategorized")
	}

	return domain.FilterDecision{
		ImageID:       id,
		Category:      category,
		Subcategories: subcategories,
		TimeCategory:  categorizeByTime(meta.CaptureDatetime),
		Location:      categorizeByLocation(meta.GPS),
		PassesFilter:  technical >= a.thresholds.MinTechnicalScore && aesthetic >= a.thresholds.MinAestheticScore,
		Flagged:       len(flags) > 0,
		Flags:         flags,
	}
}

// categorizeBySubject matches taxonomy keywords against the photo's
// file path. Photos named after what they show (the common pattern for
// exported travel sets) land in a real category; the rest are flagged
// for manual tagging.
func categorizeBySubject(item agent.Item) (string, []string) {
	lower := strings.ToLower(item.Photo.Path)
	for _, category := range subjectCategories {
		var matched []string
		for _, kw := range category.keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			return category.name, matched
		}
	}
	return "Uncategorized", nil
}

func categorizeByTime(captureDatetime string) string {
	if captureDatetime == "" {
		return "Unknown"
	}
	t, err := time.Parse(time.RFC3339, captureDatetime)
	if err != nil {
		return "Unknown"
	}

	switch hour := t.Hour(); {
	case hour >= 5 && hour < 7:
		return "Sunrise"
	case hour >= 7 && hour < 10:
		return "Morning"
	case hour >= 17 && hour < 19:
		return "Golden Hour"
	case hour >= 19 && hour < 21:
		return "Sunset"
	case hour >= 21 || hour < 5:
		return "Night"
	default:
		return "Daytime"
	}
}

func categorizeByLocation(gps *domain.GPSInfo) string {
	if gps == nil {
		return ""
	}
	return fmt.Sprintf("(%.4f, %.4f)", gps.Latitude, gps.Longitude)
}
