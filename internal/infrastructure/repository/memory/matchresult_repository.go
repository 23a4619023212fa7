package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchresult"
)

type ratingKey struct {
	raterTeamID string
	ratedTeamID string
	bookingID   string
	category    matchresult.RatingCategory
}

type MatchResultRepository struct {
	mu               sync.RWMutex
	resultsByBooking map[string]matchresult.Result
	ratings          map[ratingKey]matchresult.Rating
}

func NewMatchResultRepository() *MatchResultRepository {
	return &MatchResultRepository{
		resultsByBooking: make(map[string]matchresult.Result),
		ratings:          make(map[ratingKey]matchresult.Rating),
	}
}

func (r *MatchResultRepository) CreateResult(_ context.Context, item matchresult.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resultsByBooking[item.BookingID]; exists {
		return matchresult.ErrDuplicateResult
	}
	r.resultsByBooking[item.BookingID] = item

	return nil
}

func (r *MatchResultRepository) GetResultByBooking(_ context.Context, bookingID string) (matchresult.Result, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.resultsByBooking[bookingID]
	return item, ok, nil
}

func (r *MatchResultRepository) UpdateResult(_ context.Context, item matchresult.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resultsByBooking[item.BookingID]; !exists {
		return fmt.Errorf("match result for booking %s does not exist", item.BookingID)
	}
	r.resultsByBooking[item.BookingID] = item

	return nil
}

func (r *MatchResultRepository) CreateRating(_ context.Context, item matchresult.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ratingKey{
		raterTeamID: item.RaterTeamID,
		ratedTeamID: item.RatedTeamID,
		bookingID:   item.BookingID,
		category:    item.Category,
	}
	if _, exists := r.ratings[key]; exists {
		return matchresult.ErrDuplicateRating
	}
	r.ratings[key] = item

	return nil
}

func (r *MatchResultRepository) ListRatingsByRatedTeam(_ context.Context, teamID string) ([]matchresult.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]matchresult.Rating, 0)
	for _, item := range r.ratings {
		if item.RatedTeamID == teamID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *MatchResultRepository) AverageRatingsByTeam(_ context.Context, teamID string) ([]matchresult.CategoryAverage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sums := make(map[matchresult.RatingCategory]int)
	counts := make(map[matchresult.RatingCategory]int)
	for _, item := range r.ratings {
		if item.RatedTeamID != teamID {
			continue
		}
		sums[item.Category] += item.Score
		counts[item.Category]++
	}

	out := make([]matchresult.CategoryAverage, 0, len(sums))
	for category, sum := range sums {
		out = append(out, matchresult.CategoryAverage{
			Category: category,
			Average:  float64(sum) / float64(counts[category]),
			Count:    counts[category],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })

	return out, nil
}
