package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/debateflow/extract"
	"github.com/BaSui01/debateflow/internal/metrics"
	"github.com/BaSui01/debateflow/llm"
	"github.com/BaSui01/debateflow/types"
)

// preferenceLabels are the section labels of a preference response.
var preferenceLabels = []string{
	"Preferred roles (in order)", "Preferred roles",
	"Confidence by role",
	"Reasoning",
	"Self-assessment",
}

// RoleAssigner elicits role preferences from every participant and turns
// them into a judge plus three solvers.
type RoleAssigner struct {
	invoker     llm.Invoker
	ex          *extract.Extractor
	logger      *zap.Logger
	metrics     *metrics.Collector
	temperature float32
	threshold   float64
}

// NewRoleAssigner creates a role assigner. threshold is the minimum judge
// confidence a participant must exceed to be eligible as judge; zero means
// DefaultJudgeThreshold.
func NewRoleAssigner(opts Options, threshold float64) *RoleAssigner {
	opts = opts.normalized()
	if threshold == 0 {
		threshold = DefaultJudgeThreshold
	}
	return &RoleAssigner{
		invoker:     opts.Invoker,
		ex:          opts.Extractor,
		logger:      opts.Logger.With(zap.String("stage", StagePreferences)),
		metrics:     opts.Metrics,
		temperature: opts.Temperature,
		threshold:   threshold,
	}
}

// CollectPreferences asks every participant, concurrently, which role it
// prefers for the problem. It never fails: a participant whose invocation
// errors or whose response is unparseable gets the default preference.
func (a *RoleAssigner) CollectPreferences(ctx context.Context, problem types.Problem, participants []string) map[string]types.RolePreference {
	prompt := preferencePrompt(problem)
	prefs := make(map[string]types.RolePreference, len(participants))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range participants {
		id := id
		g.Go(func() error {
			pref := a.collectOne(gctx, id, prompt)
			mu.Lock()
			prefs[id] = pref
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prefs
}

func (a *RoleAssigner) collectOne(ctx context.Context, id, prompt string) types.RolePreference {
	raw, err := a.invoker.Invoke(ctx, id, prompt, a.temperature)
	if err != nil {
		a.metrics.RecordInvoke(StagePreferences, id, statusError)
		a.logger.Warn("preference invocation failed, using default",
			zap.String("participant", id), zap.Error(err))
		return defaultPreference()
	}
	a.metrics.RecordInvoke(StagePreferences, id, statusOK)
	return a.parsePreference(id, raw)
}

// parsePreference reads a preference response, falling back per field to
// the defaults when the response strays from the requested format.
func (a *RoleAssigner) parsePreference(id, raw string) types.RolePreference {
	pref := defaultPreference()

	// A text-format response embeds a braced confidence map, so a found
	// JSON object only short-circuits when it carries the expected keys.
	if obj, ok := extract.JSONObject(raw); ok {
		matched := false
		if roles, ok := extract.StringList(obj["preferred_roles"]); ok && len(roles) > 0 {
			pref.PreferredRoles = roles
			matched = true
		}
		if conf, ok := confidenceMap(obj["confidence_by_role"]); ok {
			pref.ConfidenceByRole = conf
			matched = true
		}
		if s, ok := extract.StringValue(obj["reasoning"]); ok {
			pref.Reasoning = s
			matched = true
		}
		if s, ok := extract.StringValue(obj["self_assessment"]); ok {
			pref.SelfAssessment = s
		}
		if matched {
			return pref
		}
	}

	rolesFound := false
	if v, ok := extract.LabelValue(raw, []string{"Preferred roles (in order)", "Preferred roles"}, preferenceLabels); ok {
		if roles := parseRoleList(v); len(roles) > 0 {
			pref.PreferredRoles = roles
			rolesFound = true
		}
	}
	if !rolesFound {
		a.metrics.RecordParseFallback(StagePreferences, "preferred_roles")
	}

	confFound := false
	if v, ok := extract.LabelValue(raw, []string{"Confidence by role"}, preferenceLabels); ok {
		var conf map[string]float64
		if err := json.Unmarshal([]byte(v), &conf); err == nil && len(conf) > 0 {
			pref.ConfidenceByRole = conf
			confFound = true
		}
	}
	if !confFound {
		a.metrics.RecordParseFallback(StagePreferences, "confidence_by_role")
		a.logger.Debug("confidence map not parseable, using default",
			zap.String("participant", id))
	}

	if v, ok := extract.LabelValue(raw, []string{"Reasoning"}, preferenceLabels); ok {
		pref.Reasoning = v
	}
	if v, ok := extract.LabelValue(raw, []string{"Self-assessment"}, preferenceLabels); ok {
		pref.SelfAssessment = v
	}
	return pref
}

// AssignRoles turns the collected preferences into a partition. The result
// is deterministic for a given preference map: all ties break toward the
// lexicographically smaller participant id.
//
// The judge is the participant that wants the role with the highest judge
// confidence strictly above the threshold. When nobody qualifies the judge
// is the participant with the lowest solver confidence, keeping the
// stronger solvers solving. The three highest-confidence remaining
// participants become solvers.
func (a *RoleAssigner) AssignRoles(prefs map[string]types.RolePreference) (types.RolePartition, error) {
	if len(prefs) < types.SolverCount+1 {
		return types.RolePartition{}, types.NewError(types.ErrConfiguration,
			fmt.Sprintf("need at least %d participants for a debate, got %d",
				types.SolverCount+1, len(prefs)))
	}

	ids := make([]string, 0, len(prefs))
	for id := range prefs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	judge := ""
	best := 0.0
	for _, id := range ids {
		p := prefs[id]
		if !prefersRole(p, types.RoleJudge) {
			continue
		}
		if c := roleConfidence(p, types.RoleJudge); c > a.threshold && c > best {
			judge, best = id, c
		}
	}

	if judge == "" {
		weakest := 0.0
		for i, id := range ids {
			c := roleConfidence(prefs[id], types.RoleSolver)
			if i == 0 || c < weakest {
				judge, weakest = id, c
			}
		}
		a.logger.Info("no participant qualified as judge, using weakest solver",
			zap.String("judge", judge), zap.Float64("solver_confidence", weakest))
	}

	solvers := make([]string, 0, len(ids)-1)
	for _, id := range ids {
		if id != judge {
			solvers = append(solvers, id)
		}
	}
	sort.SliceStable(solvers, func(i, j int) bool {
		return roleConfidence(prefs[solvers[i]], types.RoleSolver) >
			roleConfidence(prefs[solvers[j]], types.RoleSolver)
	})
	solvers = solvers[:types.SolverCount]
	sort.Strings(solvers)

	partition := types.RolePartition{Judge: judge, Solvers: solvers}
	if err := partition.Validate(); err != nil {
		return types.RolePartition{}, err
	}
	a.logger.Info("roles assigned",
		zap.String("judge", judge), zap.Strings("solvers", solvers))
	return partition, nil
}

func defaultPreference() types.RolePreference {
	return types.RolePreference{
		PreferredRoles: []string{types.RoleSolver},
		ConfidenceByRole: map[string]float64{
			types.RoleSolver: 0.8,
			types.RoleJudge:  0.5,
		},
		Reasoning: "no preference stated",
	}
}

func prefersRole(p types.RolePreference, role string) bool {
	for _, r := range p.PreferredRoles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

// roleConfidence looks the role up case-insensitively; absent means zero.
func roleConfidence(p types.RolePreference, role string) float64 {
	for k, v := range p.ConfidenceByRole {
		if strings.EqualFold(strings.TrimSpace(k), role) {
			return v
		}
	}
	return 0
}

// parseRoleList reads either a JSON array or a comma-separated list,
// bracketed or not.
func parseRoleList(v string) []string {
	var roles []string
	if err := json.Unmarshal([]byte(v), &roles); err == nil {
		return roles
	}
	v = strings.Trim(strings.TrimSpace(v), "[]")
	for _, part := range strings.Split(v, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			roles = append(roles, part)
		}
	}
	return roles
}

// confidenceMap coerces a decoded JSON value into a role confidence map,
// accepting numbers and percentage strings as values.
func confidenceMap(v any) (map[string]float64, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	conf := make(map[string]float64, len(m))
	for k, raw := range m {
		conf[k] = extract.ConfidenceValue(raw, 0)
	}
	return conf, true
}
