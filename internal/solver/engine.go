// Package solver assigns duty days to staff for one month. It builds a
// constraint model from the roster and calendar, constructs candidate
// rosters with a seeded backtracking search, polishes them with local
// search, and walks a relaxation ladder when the strict model has no
// feasible roster.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"tooban/internal/almanac"
	"tooban/internal/log"
	"tooban/internal/roster"
)

const tracerName = "tooban/solver"

// seedStride separates per-attempt seeds; a prime keeps low-entropy user
// seeds from colliding across attempts.
const seedStride = 7919

// Engine solves duty rosters for a fixed set of staff and month days.
type Engine struct {
	staff []roster.Staff
	days  []almanac.Day
}

// New returns an engine over the given staff and the days of one month,
// as produced by almanac.Month.
func New(staff []roster.Staff, days []almanac.Day) *Engine {
	return &Engine{staff: staff, days: days}
}

// Solve searches for up to opts.MaxSolutions distinct rosters. It returns
// an InfeasibleError when every relaxation stage fails, and a nil error
// with an empty result when there is no staff to schedule.
func (e *Engine) Solve(ctx context.Context, opts Options) ([]Solution, error) {
	opts = opts.normalized()

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "solver.solve")
	defer span.End()
	span.SetAttributes(
		attribute.Int("solver.staff", len(e.staff)),
		attribute.Int("solver.days", len(e.days)),
		attribute.Int64("solver.seed", opts.Seed),
		attribute.Int("solver.max_solutions", opts.MaxSolutions),
	)

	if len(e.staff) == 0 || len(e.days) == 0 {
		return nil, nil
	}

	stages := e.buildStages(opts)
	var failTags []string

	for i, st := range stages {
		ctx, stageSpan := tracer.Start(ctx, "solver.stage")
		stageSpan.SetAttributes(
			attribute.Int("solver.stage", i),
			attribute.Int("solver.rest_gap", st.effGap),
			attribute.StringSlice("solver.relaxations", st.labels),
		)

		sols, tags, err := e.runStage(ctx, st, opts)
		stageSpan.End()

		if err != nil {
			var infeasible *InfeasibleError
			if errors.As(err, &infeasible) {
				failTags = mergeTags(failTags, infeasible.Tags)
				log.Debug(log.CatSolver, "stage ruled out up front", "stage", i, "reason", infeasible.Error())
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if len(sols) > 0 {
			log.Info(log.CatSolver, "roster found",
				"stage", i, "solutions", len(sols), "relaxations", len(st.labels))
			span.SetStatus(codes.Ok, "")
			return sols, nil
		}
		failTags = mergeTags(failTags, tags)
		log.Debug(log.CatSolver, "stage exhausted", "stage", i, "rest_gap", st.effGap)
	}

	err := &InfeasibleError{Tags: failTags, Report: e.infeasibleReport(opts, failTags)}
	span.RecordError(err)
	span.SetStatus(codes.Error, "infeasible")
	return nil, err
}

// runStage attempts one relaxation stage: repeated seeded construction
// plus local search, deduplicated by fingerprint, until enough distinct
// feasible rosters are found or the attempt budget runs out.
func (e *Engine) runStage(ctx context.Context, st stage, opts Options) ([]Solution, []string, error) {
	m, err := buildModel(e.staff, e.days, opts, st.effGap)
	if err != nil {
		return nil, nil, err
	}
	st.apply(m)

	tracer := otel.Tracer(tracerName)

	var (
		sols     []Solution
		tags     []string
		seen     = make(map[string]bool)
		attempts = opts.MaxSolutions * 8
	)

	for attempt := 0; attempt < attempts && len(sols) < opts.MaxSolutions; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("solve canceled: %w", err)
		}
		seed := opts.Seed + int64(attempt)*seedStride
		rng := rand.New(rand.NewSource(seed))

		searchCtx, searchSpan := tracer.Start(ctx, "solver.search")
		x, ok := m.construct(rng)
		if !ok {
			// Fall back to local search from an empty roster; pinned
			// months sometimes defeat the greedy order but not the
			// improver.
			for s := range x {
				for d := range x[s] {
					x[s][d] = m.forced[s][d] == forcedOn
				}
			}
		}
		searchSpan.SetAttributes(attribute.Bool("solver.constructed", ok))
		searchSpan.End()

		_, improveSpan := tracer.Start(searchCtx, "solver.improve")
		sc := m.improve(ctx, x, rng)
		improveSpan.SetAttributes(
			attribute.Int("solver.soft", sc.soft),
			attribute.Int("solver.hard", sc.hard),
		)
		improveSpan.End()

		if sc.hard > 0 {
			tags = mergeTags(tags, m.violationTags(x))
			continue
		}

		sol := solutionFromAssignment(e.days, m.names, x, m.group, seed)
		sol.Relaxations = append([]string(nil), st.labels...)
		fp := sol.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		sols = append(sols, *sol)
	}

	return sols, tags, nil
}

func mergeTags(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, t := range dst {
		seen[t] = true
	}
	for _, t := range src {
		if t != "" && !seen[t] {
			seen[t] = true
			dst = append(dst, t)
		}
	}
	return dst
}
