package catalog

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
)

// scoring weights; see the per-function comments for how they combine
const (
	maxResults = 6

	categoryAffinityScore = 40
	interestMatchScore    = 10
	ratingWeight          = 20
	popularityCap         = 10

	trendingEnrollWeight = 5
	trendingEnrollCap    = 50
	trendingRatingWeight = 30
	trendingMinRatings   = 3
	recencyWeight        = 20
	recencyWindowDays    = 30
)

// Item is the catalog projection the scorers read, assembled from a class plus its
// enrollment signals.
type Item struct {
	ClassID         string    `json:"class_id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	SubCategory     string    `json:"sub_category"`
	Price           float64   `json:"price"`
	AverageRating   float64   `json:"average_rating"`
	RatingCount     int       `json:"rating_count"`
	EnrollmentCount int       `json:"enrollment_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// ItemFromClass builds the catalog projection for one class.
func ItemFromClass(cls class.Class, enrollments []enroll.Enrollment) Item {
	item := Item{
		ClassID:         cls.ID,
		Title:           cls.Title,
		Category:        cls.Category,
		SubCategory:     cls.SubCategory,
		Price:           cls.Price,
		EnrollmentCount: len(enrollments),
		CreatedAt:       cls.CreatedAt,
	}
	var sum int
	for _, e := range enrollments {
		if e.Rating.Valid {
			sum += e.Rating.Int
			item.RatingCount++
		}
	}
	if item.RatingCount > 0 {
		item.AverageRating = float64(sum) / float64(item.RatingCount)
	}
	return item
}

// LearnerSignals is everything the scorers know about a learner.
type LearnerSignals struct {
	EnrolledClassIDs   []string
	EnrolledCategories []string
	Interests          []string // declared interest keywords
}

type ScoredItem struct {
	Item
	Score float64 `json:"score"`
}

// Recommended scores every catalog item the learner is not already enrolled in:
// +40 for a category the learner already studies, +10 per declared interest keyword
// found (case-insensitively) in the title, category or sub-category, up to +20 for
// the average rating when at least one rating exists, and up to +10 for popularity
// (one point per enrollment, capped). Top 6 by score; ties keep catalog order.
func Recommended(items []Item, sig LearnerSignals) []ScoredItem {
	enrolled := toSet(sig.EnrolledClassIDs)
	categories := toLowerSet(sig.EnrolledCategories)

	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		if enrolled[item.ClassID] {
			continue
		}

		var score float64
		if categories[strings.ToLower(item.Category)] {
			score += categoryAffinityScore
		}
		haystack := strings.ToLower(item.Title + " " + item.Category + " " + item.SubCategory)
		for _, interest := range sig.Interests {
			kw := strings.ToLower(strings.TrimSpace(interest))
			if kw != "" && strings.Contains(haystack, kw) {
				score += interestMatchScore
			}
		}
		if item.RatingCount > 0 {
			score += item.AverageRating / 5 * ratingWeight
		}
		score += math.Min(float64(item.EnrollmentCount), popularityCap)

		scored = append(scored, ScoredItem{Item: item, Score: score})
	}
	return top(scored)
}

// Trending ranks non-enrolled items independently of learner taste:
// up to +50 for enrollments (5 points each), up to +30 for the average rating once
// an item has at least 3 ratings, and a recency bonus decaying linearly from +20
// to 0 over the first 30 days since creation.
func Trending(items []Item, enrolledClassIDs []string, now time.Time) []ScoredItem {
	enrolled := toSet(enrolledClassIDs)

	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		if enrolled[item.ClassID] {
			continue
		}

		score := math.Min(float64(item.EnrollmentCount)*trendingEnrollWeight, trendingEnrollCap)
		if item.RatingCount >= trendingMinRatings {
			score += item.AverageRating / 5 * trendingRatingWeight
		}
		if age := now.Sub(item.CreatedAt).Hours() / 24; age >= 0 && age < recencyWindowDays {
			score += recencyWeight * (1 - age/recencyWindowDays)
		}

		scored = append(scored, ScoredItem{Item: item, Score: score})
	}
	return top(scored)
}

func top(scored []ScoredItem) []ScoredItem {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > maxResults {
		scored = scored[:maxResults]
	}
	return scored
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}

func toLowerSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[strings.ToLower(v)] = true
	}
	return set
}

// Recommendations bundles both rankings for one learner.
type Recommendations struct {
	Recommended []ScoredItem `json:"recommended"`
	Trending    []ScoredItem `json:"trending"`
}

type (
	ClassSource interface {
		QueryAllClasses(ctx context.Context) ([]class.Class, error)
	}

	EnrollmentSource interface {
		QueryEnrollmentsByClass(ctx context.Context, classID string) ([]enroll.Enrollment, error)
		QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]enroll.Enrollment, error)
	}

	// Scorer assembles catalog items and learner signals from storage and runs both
	// pure rankings. It reads everything fresh per request and mutates nothing.
	Scorer struct {
		classes     ClassSource
		enrollments EnrollmentSource
	}
)

func NewScorer(classes ClassSource, enrollments EnrollmentSource) *Scorer {
	return &Scorer{classes: classes, enrollments: enrollments}
}

// ForStudent produces both ranked lists for a learner, with interests coming from
// the request (the learner profile lives upstream).
func (sc *Scorer) ForStudent(ctx context.Context, studentID string, interests []string) (Recommendations, error) {
	classes, err := sc.classes.QueryAllClasses(ctx)
	if err != nil {
		return Recommendations{}, err
	}

	items := make([]Item, 0, len(classes))
	categoryByClass := make(map[string]string, len(classes))
	for _, cls := range classes {
		enrollments, err := sc.enrollments.QueryEnrollmentsByClass(ctx, cls.ID)
		if err != nil {
			return Recommendations{}, err
		}
		items = append(items, ItemFromClass(cls, enrollments))
		categoryByClass[cls.ID] = cls.Category
	}

	own, err := sc.enrollments.QueryEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return Recommendations{}, err
	}
	sig := LearnerSignals{Interests: interests}
	for _, e := range own {
		sig.EnrolledClassIDs = append(sig.EnrolledClassIDs, e.ClassID)
		if cat, ok := categoryByClass[e.ClassID]; ok {
			sig.EnrolledCategories = append(sig.EnrolledCategories, cat)
		}
	}

	return Recommendations{
		Recommended: Recommended(items, sig),
		Trending:    Trending(items, sig.EnrolledClassIDs, time.Now()),
	}, nil
}
