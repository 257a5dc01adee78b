// Package supervisor drives one conversation turn to completion: route,
// dispatch, arbitrate, persist.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chainsight/internal/agents"
	"chainsight/internal/arbiter"
	"chainsight/internal/conversation"
	"chainsight/internal/display"
	"chainsight/internal/logger"
	"chainsight/internal/metrics"
	"chainsight/internal/planner"
	"chainsight/internal/session"
)

const producerSupervisor = "supervisor"

// apologyReply is surfaced when routing failed and even the fallback plan has
// no provider to land on.
const apologyReply = "I'm sorry, I couldn't work out how to handle that request. Please try rephrasing it."

type Options struct {
	HistoryWindow int           // messages of history shown to planner and providers
	StepTimeout   time.Duration // budget for one provider call
	PlanTimeout   time.Duration // budget for the routing call
}

func (o *Options) fillDefaults() {
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 20
	}
	if o.StepTimeout <= 0 {
		o.StepTimeout = 120 * time.Second
	}
	if o.PlanTimeout <= 0 {
		o.PlanTimeout = 20 * time.Second
	}
}

// Supervisor owns the dispatch policy. All state is injected; two Supervisor
// instances share nothing, so independent instances (tests included) cannot
// observe each other.
type Supervisor struct {
	store     session.Store
	planner   planner.Planner
	providers map[string]agents.CapabilityProvider
	opts      Options
}

func New(store session.Store, pl planner.Planner, providers []agents.CapabilityProvider, opts Options) *Supervisor {
	opts.fillDefaults()
	byName := make(map[string]agents.CapabilityProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Supervisor{store: store, planner: pl, providers: byName, opts: opts}
}

// Run processes one turn against the session identified by key and returns
// the arbitrated assistant message. Turns on the same key are serialized;
// different keys proceed in parallel. Every internal failure mode still
// produces an assistant message and advances history, so a session survives
// bad turns.
func (s *Supervisor) Run(ctx context.Context, turn conversation.Turn, key string) (conversation.Message, *metrics.TurnMetrics, error) {
	tm := &metrics.TurnMetrics{
		TurnID:     uuid.New().String()[:8],
		SessionKey: key,
		Start:      time.Now(),
	}
	defer tm.Finalize()

	unlock := s.store.Lock(key)
	defer unlock()

	st, err := s.store.Load(key)
	if err != nil {
		// A broken persistent backend still yields an empty, usable state.
		logger.Log.Printf("[Supervisor] load session %q: %v", key, err)
	}
	if turn.HintDataset != "" {
		st.Scratchpad["selected_triangle"] = turn.HintDataset
	} else if prev, ok := st.Scratchpad["selected_triangle"].(string); ok && prev != "" {
		// No hint this turn; stay on the previously selected triangle.
		turn.HintDataset = prev
	}

	window := conversation.Tail(st.History, s.opts.HistoryWindow)
	final, artifacts := s.executeTurn(ctx, turn, window, tm)

	userMsg := conversation.Message{
		Role:    conversation.RoleUser,
		Content: turn.Text,
		Seq:     len(st.History),
	}
	final.Seq = len(st.History) + 1
	st.History = append(st.History, userMsg, final)
	if len(artifacts) > 0 {
		st.Scratchpad["last_artifacts"] = artifacts
	}

	if err := s.store.Save(key, st); err != nil {
		logger.Log.Printf("[Supervisor] save session %q: %v", key, err)
		return final, tm, fmt.Errorf("save session: %w", err)
	}
	return final, tm, nil
}

// executeTurn routes and dispatches; it always comes back with an assistant
// message. A panic anywhere below is converted to an error reply so the turn
// still completes and gets persisted.
func (s *Supervisor) executeTurn(ctx context.Context, turn conversation.Turn, window []conversation.Message, tm *metrics.TurnMetrics) (final conversation.Message, artifacts []string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Printf("[Supervisor] panic in turn %s: %v", tm.TurnID, rec)
			final = s.reply(fmt.Sprintf("Error: %v", rec))
		}
	}()

	plan := s.route(ctx, turn, window)
	if plan == nil {
		return s.reply(apologyReply), nil
	}
	logger.Log.Printf("[Supervisor] turn %s:\n%s", tm.TurnID, display.FormatDispatchPlan(plan))

	if len(plan.Steps) == 0 {
		// The planner answered the turn itself.
		tm.Succeeded = true
		return s.reply(plan.DirectReply), nil
	}

	produced, artifacts, soleFailure := s.dispatch(ctx, plan, window, tm)

	if soleFailure != "" {
		return s.reply("Error: " + soleFailure), artifacts
	}

	answer, err := arbiter.Select(produced)
	if err != nil {
		logger.Log.Printf("[Supervisor] turn %s: no qualifying answer among %d messages", tm.TurnID, len(produced))
		return s.reply(arbiter.FallbackReply), artifacts
	}
	tm.Succeeded = true
	return answer, artifacts
}

// route obtains a validated plan, falling back to the quantitative-analysis
// provider on any routing failure. A nil return means not even the fallback
// provider exists.
func (s *Supervisor) route(ctx context.Context, turn conversation.Turn, window []conversation.Message) *planner.DispatchPlan {
	planCtx, cancel := context.WithTimeout(ctx, s.opts.PlanTimeout)
	defer cancel()

	plan, err := s.planner.Plan(planCtx, turn, window)
	if err == nil {
		return plan
	}
	logger.Log.Printf("[Supervisor] routing failed, using fallback plan: %v", err)

	if _, ok := s.providers[planner.FallbackAgent]; !ok {
		return nil
	}
	return planner.Fallback(turn)
}

// dispatch executes the plan in order. Later providers see earlier providers'
// output; a provider failure is recorded as a system message and the plan
// continues, unless the failed provider was the only one planned.
func (s *Supervisor) dispatch(ctx context.Context, plan *planner.DispatchPlan, window []conversation.Message, tm *metrics.TurnMetrics) (produced []conversation.Message, artifacts []string, soleFailure string) {
	seq := len(window)
	appendMsg := func(m conversation.Message) {
		m.Seq = seq
		seq++
		produced = append(produced, m)
	}

	for _, step := range plan.Steps {
		if ctx.Err() != nil {
			break
		}

		sm := metrics.StepMetrics{Agent: step.Agent, Start: time.Now()}

		provider, ok := s.providers[step.Agent]
		if !ok {
			sm.End = time.Now()
			sm.Err = "unknown provider"
			sm.Finalize()
			tm.Steps = append(tm.Steps, sm)
			appendMsg(conversation.Message{
				Role:     conversation.RoleSystem,
				Content:  fmt.Sprintf("No provider named %q is registered; skipping this step.", step.Agent),
				Producer: producerSupervisor,
			})
			continue
		}

		visible := make([]conversation.Message, 0, len(window)+len(produced))
		visible = append(visible, window...)
		visible = append(visible, produced...)

		stepCtx, cancel := context.WithTimeout(ctx, s.opts.StepTimeout)
		out := provider.Handle(stepCtx, step.Instruction, visible)
		cancel()

		sm.End = time.Now()
		sm.Success = out.Error == ""
		sm.Err = out.Error
		sm.Finalize()
		tm.Steps = append(tm.Steps, sm)

		for _, m := range out.Messages {
			appendMsg(m)
		}
		artifacts = append(artifacts, out.Artifacts...)

		if out.Error != "" {
			logger.Log.Printf("[Supervisor] turn %s: provider %s failed: %s", tm.TurnID, step.Agent, out.Error)
			appendMsg(conversation.Message{
				Role:     conversation.RoleSystem,
				Content:  fmt.Sprintf("Provider %s failed: %s", step.Agent, out.Error),
				Producer: producerSupervisor,
			})
			if len(plan.Steps) == 1 {
				soleFailure = out.Error
			}
		}
	}
	return produced, artifacts, soleFailure
}

func (s *Supervisor) reply(text string) conversation.Message {
	return conversation.Message{
		Role:     conversation.RoleAssistant,
		Content:  text,
		Producer: producerSupervisor,
	}
}
