package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

func buildDimension(scores ...float64) models.DimensionResult {
	criteria := make([]models.CriterionResult, 0, len(scores))
	for _, score := range scores {
		criteria = append(criteria, models.CriterionResult{Question: "q", Score: score})
	}
	dimension := models.DimensionResult{Category: "Methodology", Criteria: criteria}
	recomputeDimension(&dimension)
	return dimension
}

func TestAdjustCriterionRecomputesHierarchy(t *testing.T) {
	dimensions := []models.DimensionResult{
		buildDimension(3.0, 2.5, 4.0),
		buildDimension(2.0, 2.0),
	}

	next, overall, err := AdjustCriterion(dimensions, 0, 1, +Step)
	require.NoError(t, err)
	require.InDelta(t, 2.75, next[0].Criteria[1].Score, 1e-9)
	require.InDelta(t, 9.75, next[0].Score, 1e-9)
	require.InDelta(t, 12.0, next[0].MaxScore, 1e-9)
	require.InDelta(t, 81.25, next[0].Percentage, 1e-9)
	require.InDelta(t, 13.75, overall, 1e-9)

	// invariant holds after every single adjustment
	sum := 0.0
	for _, criterion := range next[0].Criteria {
		sum += criterion.Score
	}
	require.InDelta(t, next[0].Score, sum, 1e-9)

	// the input set is untouched
	require.InDelta(t, 2.5, dimensions[0].Criteria[1].Score, 1e-9)
}

func TestAdjustCriterionClampIsNoOp(t *testing.T) {
	dimensions := []models.DimensionResult{buildDimension(3.0, 2.5, 4.0)}
	require.InDelta(t, 9.5, dimensions[0].Score, 1e-9)
	require.InDelta(t, 12.0, dimensions[0].MaxScore, 1e-9)
	require.InDelta(t, 79.17, dimensions[0].Percentage, 1e-9)

	next, overall, err := AdjustCriterion(dimensions, 0, 2, +Step)
	require.NoError(t, err)
	require.InDelta(t, 4.0, next[0].Criteria[2].Score, 1e-9)
	require.InDelta(t, 9.5, next[0].Score, 1e-9)
	require.InDelta(t, 9.5, overall, 1e-9)
}

func TestAdjustCriterionLowerBound(t *testing.T) {
	dimensions := []models.DimensionResult{buildDimension(1.0, 2.0)}

	next, _, err := AdjustCriterion(dimensions, 0, 0, -Step)
	require.NoError(t, err)
	require.InDelta(t, 1.0, next[0].Criteria[0].Score, 1e-9)
	require.InDelta(t, 3.0, next[0].Score, 1e-9)
}

func TestAdjustCriterionZeroDeltaIdempotent(t *testing.T) {
	dimensions := []models.DimensionResult{buildDimension(3.25, 2.75)}

	next, overall, err := AdjustCriterion(dimensions, 0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, dimensions, next)
	require.InDelta(t, 6.0, overall, 1e-9)
}

func TestAdjustCriterionOutOfRange(t *testing.T) {
	dimensions := []models.DimensionResult{buildDimension(3.0)}

	_, _, err := AdjustCriterion(dimensions, 1, 0, Step)
	require.ErrorIs(t, err, ErrCriterionOutOfRange)

	_, _, err = AdjustCriterion(dimensions, 0, 5, Step)
	require.ErrorIs(t, err, ErrCriterionOutOfRange)
}

func TestAdjustRefusesFinalizedEvaluation(t *testing.T) {
	eval := models.Evaluation{IsFinalized: true}
	eval.SetDimensions([]models.DimensionResult{buildDimension(3.0, 3.0)})

	err := Adjust(&eval, 0, 0, Step)
	require.ErrorIs(t, err, ErrFinalized)
	require.InDelta(t, 3.0, eval.DimensionList()[0].Criteria[0].Score, 1e-9)
}

func TestAdjustWritesBackOverall(t *testing.T) {
	eval := models.Evaluation{}
	eval.SetDimensions([]models.DimensionResult{
		buildDimension(3.0, 3.0),
		buildDimension(2.0, 4.0),
	})
	eval.OverallScore = 12.0

	require.NoError(t, Adjust(&eval, 1, 0, Step))
	require.InDelta(t, 12.25, eval.OverallScore, 1e-9)
	require.InDelta(t, 6.25, eval.DimensionList()[1].Score, 1e-9)
}

func TestNormalizeRepairsBackendSums(t *testing.T) {
	dimensions := []models.DimensionResult{
		{
			Category: "Analysis",
			Score:    99, // wrong on purpose
			Criteria: []models.CriterionResult{
				{Question: "q1", Score: 3},
				{Question: "q2", Score: 5}, // above scale, must clamp to 4
			},
		},
	}

	next, overall := Normalize(dimensions)
	require.InDelta(t, 7.0, next[0].Score, 1e-9)
	require.InDelta(t, 8.0, next[0].MaxScore, 1e-9)
	require.InDelta(t, 87.5, next[0].Percentage, 1e-9)
	require.InDelta(t, 7.0, overall, 1e-9)
}
