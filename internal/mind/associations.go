package mind

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/observability"
)

// ResponseIndex looks up and records which replies followed which messages.
type ResponseIndex struct {
	backend AssociationBackend
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewResponseIndex(backend AssociationBackend, log zerolog.Logger, m *observability.Metrics) *ResponseIndex {
	return &ResponseIndex{backend: backend, log: log, metrics: m}
}

// FindCandidates returns the distinct replies recorded for messages matching
// stimulus, in first-seen order. Backend failures yield an empty result.
func (ri *ResponseIndex) FindCandidates(ctx context.Context, stimulus string) []string {
	if ri == nil || ri.backend == nil || strings.TrimSpace(stimulus) == "" {
		return nil
	}
	matches, err := ri.backend.FindResponses(ctx, stimulus)
	if err != nil {
		ri.metrics.CollaboratorError("find_responses")
		ri.log.Warn().Err(err).Msg("find responses failed")
		return nil
	}
	return flattenResponses(matches)
}

func flattenResponses(matches []StimulusMatch) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range matches {
		for _, r := range m.Responses {
			if strings.TrimSpace(r) == "" {
				continue
			}
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// Record stores response as a reply to stimulus. Failures are logged only.
func (ri *ResponseIndex) Record(ctx context.Context, stimulus string, response MessageMeta) {
	if ri == nil || ri.backend == nil {
		return
	}
	if strings.TrimSpace(stimulus) == "" || strings.TrimSpace(response.Text) == "" {
		return
	}
	if err := ri.backend.AssignResponse(ctx, stimulus, response); err != nil {
		ri.metrics.CollaboratorError("assign_response")
		ri.log.Warn().Err(err).Msg("assign response failed")
	}
}
