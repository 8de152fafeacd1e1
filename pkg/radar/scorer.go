// Package radar computes fraud/abuse risk scores for flow content. The
// publish pipeline treats the scorer as a black box returning an integer in
// [0,100], deterministic for a given flow.
package radar

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowkit/pkg/models"
)

// Options tunes a scoring call.
type Options struct {
	Debug bool
}

// Scorer computes a risk score for a flow. Implementations must be
// deterministic over flow content.
type Scorer interface {
	ComputeRiskLevel(flow *models.Flow, opts Options) int
}

// Suspicious vocabulary weights. Phishing flows almost always impersonate a
// credential or payment prompt, so those terms dominate.
var keywordWeights = map[string]int{
	"password":            35,
	"credit card":         30,
	"social security":     40,
	"gift card":           30,
	"verify your account": 25,
	"account suspended":   25,
	"wire transfer":       20,
	"crypto wallet":       20,
	"seed phrase":         45,
	"bit.ly":              15,
	"tinyurl":             15,
}

// KeywordScorer is the default scorer: it scans every piece of user-authored
// text in the flow for suspicious vocabulary and sums the weights, capped at
// 100.
type KeywordScorer struct {
	logger *slog.Logger
}

func NewKeywordScorer(logger *slog.Logger) *KeywordScorer {
	return &KeywordScorer{logger: logger}
}

func (s *KeywordScorer) ComputeRiskLevel(flow *models.Flow, opts Options) int {
	content := strings.ToLower(collectContent(flow))
	score := 0

	for keyword, weight := range keywordWeights {
		if strings.Contains(content, keyword) {
			score += weight

			if opts.Debug {
				s.logger.Debug("Risk keyword matched",
					"flow_id", flow.ID,
					"keyword", keyword,
					"weight", weight,
				)
			}
		}
	}

	if score > 100 {
		score = 100
	}

	return score
}

// collectContent flattens every user-authored text surface of the flow.
func collectContent(flow *models.Flow) string {
	var builder strings.Builder

	builder.WriteString(flow.Name)
	builder.WriteByte('\n')

	for _, group := range flow.Groups {
		builder.WriteString(group.Title)
		builder.WriteByte('\n')

		for _, block := range group.Blocks {
			writeOptions(&builder, block.Options)
		}
	}

	for _, variable := range flow.Variables {
		builder.WriteString(variable.Name)
		builder.WriteByte('\n')

		if variable.Value != nil {
			fmt.Fprintf(&builder, "%v\n", variable.Value)
		}
	}

	builder.WriteString(flow.Settings.Metadata.Title)
	builder.WriteByte('\n')
	builder.WriteString(flow.Settings.Metadata.Description)
	builder.WriteByte('\n')

	return builder.String()
}

func writeOptions(builder *strings.Builder, options map[string]any) {
	for _, value := range options {
		switch v := value.(type) {
		case string:
			builder.WriteString(v)
			builder.WriteByte('\n')
		case map[string]any:
			writeOptions(builder, v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					builder.WriteString(s)
					builder.WriteByte('\n')
				}
			}
		}
	}
}
