// Package scoring recomputes hierarchical evaluation scores. All functions
// are pure over the dimension results; no partial update is ever observable
// because adjustments work on a deep copy and swap the whole set at once.
package scoring

import (
	"errors"
	"math"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

// Step is the unit by which a criterion score may be adjusted.
const Step = 0.25

var (
	// ErrFinalized indicates the evaluation is frozen and must not be mutated.
	ErrFinalized = errors.New("evaluation is finalized")
	// ErrCriterionOutOfRange indicates the dimension or criterion index does not exist.
	ErrCriterionOutOfRange = errors.New("criterion index out of range")
)

// AdjustCriterion applies a signed delta to one criterion score and returns a
// fresh dimension set with the owning dimension and the overall score
// recomputed. The new criterion score is clamped to [1, 4] and rounded to two
// decimal places; a delta that the clamp swallows leaves every value
// unchanged.
func AdjustCriterion(dimensions []models.DimensionResult, dimIdx, critIdx int, delta float64) ([]models.DimensionResult, float64, error) {
	if dimIdx < 0 || dimIdx >= len(dimensions) {
		return nil, 0, ErrCriterionOutOfRange
	}
	if critIdx < 0 || critIdx >= len(dimensions[dimIdx].Criteria) {
		return nil, 0, ErrCriterionOutOfRange
	}

	next := cloneDimensions(dimensions)
	criterion := &next[dimIdx].Criteria[critIdx]

	adjusted := clamp(criterion.Score+delta, models.CriterionMinScore, models.CriterionMaxScore)
	criterion.Score = round2(adjusted)

	recomputeDimension(&next[dimIdx])
	return next, OverallScore(next), nil
}

// Adjust applies AdjustCriterion to a stored evaluation in place. Finalized
// evaluations are refused before any value is touched.
func Adjust(eval *models.Evaluation, dimIdx, critIdx int, delta float64) error {
	if eval.IsFinalized {
		return ErrFinalized
	}

	dimensions, overall, err := AdjustCriterion(eval.DimensionList(), dimIdx, critIdx, delta)
	if err != nil {
		return err
	}

	eval.SetDimensions(dimensions)
	eval.OverallScore = overall
	return nil
}

// Normalize recomputes every dimension's score, max score and percentage from
// its criteria and returns the resulting overall score. Used when a freshly
// parsed evaluation arrives from the AI boundary so the stored invariants
// never depend on the backend having summed correctly.
func Normalize(dimensions []models.DimensionResult) ([]models.DimensionResult, float64) {
	next := cloneDimensions(dimensions)
	for i := range next {
		for j := range next[i].Criteria {
			score := clamp(next[i].Criteria[j].Score, models.CriterionMinScore, models.CriterionMaxScore)
			next[i].Criteria[j].Score = round2(score)
		}
		recomputeDimension(&next[i])
	}
	return next, OverallScore(next)
}

// OverallScore sums the dimension scores.
func OverallScore(dimensions []models.DimensionResult) float64 {
	total := 0.0
	for _, dimension := range dimensions {
		total += dimension.Score
	}
	return round2(total)
}

func recomputeDimension(dimension *models.DimensionResult) {
	sum := 0.0
	for _, criterion := range dimension.Criteria {
		sum += criterion.Score
	}

	dimension.Score = round2(sum)
	dimension.MaxScore = float64(len(dimension.Criteria)) * models.CriterionMaxScore
	if dimension.MaxScore > 0 {
		dimension.Percentage = round2(dimension.Score / dimension.MaxScore * 100)
	} else {
		dimension.Percentage = 0
	}
}

func cloneDimensions(dimensions []models.DimensionResult) []models.DimensionResult {
	next := make([]models.DimensionResult, len(dimensions))
	for i, dimension := range dimensions {
		next[i] = dimension
		next[i].Criteria = make([]models.CriterionResult, len(dimension.Criteria))
		copy(next[i].Criteria, dimension.Criteria)
	}
	return next
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
