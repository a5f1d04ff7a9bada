package debate

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/debateflow/extract"
	"github.com/BaSui01/debateflow/internal/metrics"
	"github.com/BaSui01/debateflow/llm"
	"github.com/BaSui01/debateflow/types"
)

// DefaultReviewConfidence is assumed when a reviewer states none.
const DefaultReviewConfidence = 0.7

// reviewLabels are the section labels of a review response.
var reviewLabels = []string{
	"Strengths", "Weaknesses", "Errors", "Suggested Changes",
	"Overall Assessment", "Confidence in Review", "Confidence",
}

// errorKeyRe locates the field keys inside one "Errors" list item,
// e.g. "Location: step 4, Type: calculation_error, Description: ...".
var errorKeyRe = regexp.MustCompile(`(?i)\b(location|type|description|severity|fix)\s*:`)

// PeerReviewer runs the all-pairs review stage: every solver critiques
// every other solver's solution, never its own.
type PeerReviewer struct {
	invoker     llm.Invoker
	ex          *extract.Extractor
	logger      *zap.Logger
	metrics     *metrics.Collector
	temperature float32
}

// NewPeerReviewer creates the review stage.
func NewPeerReviewer(opts Options) *PeerReviewer {
	opts = opts.normalized()
	return &PeerReviewer{
		invoker:     opts.Invoker,
		ex:          opts.Extractor,
		logger:      opts.Logger.With(zap.String("stage", StageReview)),
		metrics:     opts.Metrics,
		temperature: opts.Temperature,
	}
}

// ReviewAll fans out every (reviewer, solution) pair concurrently and
// gathers the critiques keyed by the reviewed solver. For n solvers each
// solution receives exactly n-1 reviews. It never fails: a pair whose
// invocation errors still yields a default critique.
func (r *PeerReviewer) ReviewAll(ctx context.Context, problem types.Problem, solutions map[string]types.Solution) map[string][]types.PeerReview {
	reviews := make(map[string][]types.PeerReview, len(solutions))

	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(ctx)
	for reviewerID := range solutions {
		for solverID, sol := range solutions {
			if reviewerID == solverID {
				continue
			}
			reviewerID, solverID, sol := reviewerID, solverID, sol
			eg.Go(func() error {
				review := r.Review(gctx, problem, reviewerID, sol)
				mu.Lock()
				reviews[solverID] = append(reviews[solverID], review)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = eg.Wait()

	return reviews
}

// Review asks one reviewer for a critique of one solution.
func (r *PeerReviewer) Review(ctx context.Context, problem types.Problem, reviewerID string, sol types.Solution) types.PeerReview {
	raw, err := r.invoker.Invoke(ctx, reviewerID, reviewPrompt(problem, sol), r.temperature)
	if err != nil {
		r.metrics.RecordInvoke(StageReview, reviewerID, statusError)
		r.logger.Warn("review invocation failed, using default",
			zap.String("reviewer", reviewerID), zap.String("solver", sol.SolverID), zap.Error(err))
		raw = ""
	} else {
		r.metrics.RecordInvoke(StageReview, reviewerID, statusOK)
	}
	return r.parseReview(reviewerID, sol.SolverID, raw)
}

func (r *PeerReviewer) parseReview(reviewerID, solutionID, raw string) types.PeerReview {
	review := types.PeerReview{
		ReviewerID:        reviewerID,
		SolutionID:        solutionID,
		Strengths:         []string{},
		Weaknesses:        []string{},
		Errors:            []types.ReviewError{},
		SuggestedChanges:  []string{},
		OverallAssessment: types.AssessmentPromisingButFlawed,
		Confidence:        DefaultReviewConfidence,
	}

	// A found JSON object only short-circuits when it carries the expected
	// critique keys; stray braces in prose fall through to text parsing.
	if obj, ok := extract.JSONObject(raw); ok && hasAnyKey(obj, "strengths", "weaknesses", "overall_assessment") {
		if v, ok := extract.StringList(obj["strengths"]); ok {
			review.Strengths = v
		}
		if v, ok := extract.StringList(obj["weaknesses"]); ok {
			review.Weaknesses = v
		}
		if v, ok := obj["errors"].([]any); ok {
			review.Errors = reviewErrorsFromJSON(v)
		}
		if v, ok := extract.StringList(obj["suggested_changes"]); ok {
			review.SuggestedChanges = v
		}
		if v, ok := extract.StringValue(obj["overall_assessment"]); ok {
			review.OverallAssessment = types.ParseAssessment(v)
		}
		review.Confidence = extract.ConfidenceValue(obj["confidence"], DefaultReviewConfidence)
		return review
	}

	if body, ok := extract.Section(raw, "Strengths", reviewLabels); ok {
		review.Strengths = extract.ListItems(body)
	}
	if body, ok := extract.Section(raw, "Weaknesses", reviewLabels); ok {
		review.Weaknesses = extract.ListItems(body)
	}
	if body, ok := extract.Section(raw, "Errors", reviewLabels); ok {
		for _, item := range extract.ListItems(body) {
			if re, ok := parseErrorItem(item); ok {
				review.Errors = append(review.Errors, re)
			}
		}
	}
	if body, ok := extract.Section(raw, "Suggested Changes", reviewLabels); ok {
		review.SuggestedChanges = extract.ListItems(body)
	}

	if v, ok := extract.LabelValue(raw, []string{"Overall Assessment"}, reviewLabels); ok {
		review.OverallAssessment = types.ParseAssessment(v)
	} else {
		r.metrics.RecordParseFallback(StageReview, "overall_assessment")
	}
	if v, ok := extract.LabelValue(raw, []string{"Confidence in Review", "Confidence"}, reviewLabels); ok {
		review.Confidence = extract.Confidence(v, DefaultReviewConfidence)
	} else {
		r.metrics.RecordParseFallback(StageReview, "confidence")
	}
	return review
}

// reviewErrorsFromJSON coerces a decoded "errors" array into records,
// skipping entries that are not objects.
func reviewErrorsFromJSON(items []any) []types.ReviewError {
	errs := make([]types.ReviewError, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		re := types.ReviewError{
			Kind:     types.ParseErrorKind(stringField(m, "error_type", "type")),
			Severity: types.ParseSeverity(stringField(m, "severity")),
		}
		re.Location = stringField(m, "location")
		re.Description = stringField(m, "description")
		re.SuggestedFix = stringField(m, "suggested_fix", "fix")
		if re.Location == "" && re.Description == "" {
			continue
		}
		errs = append(errs, re)
	}
	return errs
}

// parseErrorItem reads one inline error entry of the form
// "Location: ..., Type: ..., Description: ..., Severity: ..., Fix: ...".
// An item carrying neither a location nor a description is dropped.
func parseErrorItem(item string) (types.ReviewError, bool) {
	matches := errorKeyRe.FindAllStringSubmatchIndex(item, -1)
	fields := map[string]string{}
	for i, m := range matches {
		key := strings.ToLower(item[m[2]:m[3]])
		end := len(item)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		value := strings.Trim(strings.TrimSpace(item[m[1]:end]), ",")
		if _, seen := fields[key]; !seen {
			fields[key] = strings.TrimSpace(value)
		}
	}
	if fields["location"] == "" && fields["description"] == "" {
		return types.ReviewError{}, false
	}
	return types.ReviewError{
		Location:     fields["location"],
		Kind:         types.ParseErrorKind(fields["type"]),
		Description:  fields["description"],
		Severity:     types.ParseSeverity(fields["severity"]),
		SuggestedFix: fields["fix"],
	}, true
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := extract.StringValue(m[k]); ok {
			return s
		}
	}
	return ""
}
