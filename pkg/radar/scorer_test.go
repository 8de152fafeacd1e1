package radar

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/testutil"
)

func newScorer() *KeywordScorer {
	return NewKeywordScorer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCleanFlowScoresZero(t *testing.T) {
	flow := testutil.NewFlowBuilder("flow-1").WithName("Lead qualification").Build()

	assert.Zero(t, newScorer().ComputeRiskLevel(flow, Options{}))
}

func TestSuspiciousBlockOptions(t *testing.T) {
	flow := testutil.NewFlowBuilder("flow-1").Build()
	flow.Groups[0].Blocks[0].Options = map[string]any{
		"label": "Please enter your PASSWORD to continue",
	}

	score := newScorer().ComputeRiskLevel(flow, Options{})
	assert.Equal(t, 35, score)
}

func TestScoreAccumulatesAcrossSurfaces(t *testing.T) {
	flow := testutil.NewFlowBuilder("flow-1").
		WithName("Verify your account").
		WithVariables(&models.Variable{ID: "v1", Name: "credit card"}).
		Build()

	// 25 (verify your account) + 30 (credit card).
	assert.Equal(t, 55, newScorer().ComputeRiskLevel(flow, Options{}))
}

func TestScoreIsCappedAtHundred(t *testing.T) {
	flow := testutil.NewFlowBuilder("flow-1").
		WithName("password seed phrase social security gift card wire transfer").
		Build()

	assert.Equal(t, 100, newScorer().ComputeRiskLevel(flow, Options{}))
}

func TestScoreIsDeterministic(t *testing.T) {
	flow := testutil.NewFlowBuilder("flow-1").WithName("crypto wallet bit.ly").Build()
	scorer := newScorer()

	first := scorer.ComputeRiskLevel(flow, Options{})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.ComputeRiskLevel(flow, Options{}))
	}
}

func TestMetadataIsScanned(t *testing.T) {
	flow := testutil.NewFlowBuilder("flow-1").Build()
	flow.Settings.Metadata.Description = "we need your seed phrase"

	assert.Equal(t, 45, newScorer().ComputeRiskLevel(flow, Options{}))
}
