// Package executor runs the engine slice of demo step execution: it
// resolves $var references in a step's configuration, performs REST
// calls, saves selected response fields into the variable table and
// drives poll loops. Rendering, shell and browser steps live in outer
// layers.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stagehand/engine/pkg/condition"
	"stagehand/engine/pkg/httpclient"
	"stagehand/engine/pkg/jsonpath"
	"stagehand/engine/pkg/model/mstep"
	"stagehand/engine/pkg/poller"
	"stagehand/engine/pkg/varsystem"

	"github.com/goccy/go-json"
)

var (
	// ErrUnsupportedStep reports a step kind this executor does not
	// run.
	ErrUnsupportedStep = errors.New("executor: unsupported step kind")
	// ErrAssertFailed reports an assert step whose condition did not
	// hold.
	ErrAssertFailed = errors.New("executor: assertion failed")
)

// Executor owns the variable table accumulated across a demo run.
type Executor struct {
	client httpclient.Client
	vars   varsystem.VarMap
	log    *slog.Logger

	lastResponse any
}

func New(client httpclient.Client, vars varsystem.VarMap, log *slog.Logger) *Executor {
	if client == nil {
		client = httpclient.New()
	}
	if vars == nil {
		vars = varsystem.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Executor{client: client, vars: vars, log: log}
}

// Vars exposes the current variable table.
func (e *Executor) Vars() varsystem.VarMap {
	return e.vars
}

// StepResult reports one executed step.
type StepResult struct {
	Status   int
	Response any
	Saved    map[string]any
}

// Preflight reports the variable names referenced anywhere in the steps
// but not defined in the table, so authors see unresolved references
// before the demo starts.
func (e *Executor) Preflight(steps []mstep.Step) []string {
	used := make(map[string]struct{})
	for _, step := range steps {
		for name := range varsystem.FindVariableNames(substitutable(step)) {
			used[name] = struct{}{}
		}
	}
	return varsystem.FindMissing(used, e.vars)
}

// ResolveStep substitutes $var references in the step's configuration.
// The input step is not modified.
func (e *Executor) ResolveStep(step mstep.Step) mstep.Step {
	resolved := step
	resolved.URL = e.vars.Substitute(step.URL)
	resolved.Command = e.vars.Substitute(step.Command)
	resolved.Query = e.vars.Substitute(step.Query)
	resolved.Target = e.vars.Substitute(step.Target)
	resolved.Statement = e.vars.Substitute(step.Statement)

	if step.Headers != nil {
		headers := make(map[string]string, len(step.Headers))
		for k, v := range step.Headers {
			headers[k] = e.vars.Substitute(v)
		}
		resolved.Headers = headers
	}
	if step.Body != nil {
		resolved.Body = e.vars.SubstituteDeep(step.Body).(map[string]any)
	}
	if step.Variables != nil {
		resolved.Variables = e.vars.SubstituteDeep(step.Variables).(map[string]any)
	}
	return resolved
}

// Execute runs one step to its terminal state. Saved values land in
// the executor's variable table for later steps.
func (e *Executor) Execute(ctx context.Context, step mstep.Step) (StepResult, error) {
	switch step.Kind {
	case mstep.KindRest:
		return e.executeRest(ctx, step)
	case mstep.KindWait:
		return e.executeWait(ctx, step)
	case mstep.KindAssert:
		return e.executeAssert(step)
	default:
		return StepResult{}, fmt.Errorf("%w: %s", ErrUnsupportedStep, step.Kind)
	}
}

func (e *Executor) executeRest(ctx context.Context, step mstep.Step) (StepResult, error) {
	resolved := e.ResolveStep(step)

	var body []byte
	if resolved.Body != nil {
		data, err := json.Marshal(resolved.Body)
		if err != nil {
			return StepResult{}, err
		}
		body = data
	}

	e.log.InfoContext(ctx, "step request", "method", resolved.Method, "url", resolved.URL)

	resp, err := httpclient.Send(ctx, e.client, httpclient.Request{
		Method:  resolved.Method,
		URL:     resolved.URL,
		Headers: resolved.Headers,
		Body:    body,
	})
	if err != nil {
		return StepResult{}, err
	}

	responseVar := resp.AsVar()
	e.lastResponse = responseVar

	result := StepResult{
		Status:   resp.StatusCode,
		Response: responseVar,
	}
	result.Saved = e.saveFields(responseVar, step.Save)

	if step.Poll != nil {
		saved, err := e.runPoll(ctx, *step.Poll)
		if err != nil {
			return result, err
		}
		for name, val := range saved {
			result.Saved[name] = val
		}
	}

	return result, nil
}

func (e *Executor) executeWait(ctx context.Context, step mstep.Step) (StepResult, error) {
	delay := time.Duration(step.Seconds * float64(time.Second))
	select {
	case <-time.After(delay):
		return StepResult{}, nil
	case <-ctx.Done():
		return StepResult{}, ctx.Err()
	}
}

func (e *Executor) executeAssert(step mstep.Step) (StepResult, error) {
	cond := e.vars.Substitute(step.Condition)
	if !condition.Evaluate(cond, e.lastResponse) {
		return StepResult{}, fmt.Errorf("%w: %s", ErrAssertFailed, cond)
	}
	return StepResult{Response: e.lastResponse}, nil
}

// runPoll resolves the poll endpoint once per attempt, so variables
// saved by the triggering request address the right resource.
func (e *Executor) runPoll(ctx context.Context, cfg mstep.PollConfig) (map[string]any, error) {
	fetch := func(ctx context.Context) (any, error) {
		resp, err := httpclient.Send(ctx, e.client, httpclient.Request{
			Method: "GET",
			URL:    e.vars.Substitute(cfg.Endpoint),
		})
		if err != nil {
			return nil, err
		}
		return resp.DecodedBody(), nil
	}

	result, err := poller.Poll(ctx, poller.Config{
		Endpoint:    cfg.Endpoint,
		SuccessWhen: cfg.SuccessWhen,
		FailureWhen: cfg.FailureWhen,
		Interval:    cfg.IntervalDuration(),
		MaxAttempts: cfg.MaxAttempts,
		Save:        cfg.Save,
	}, fetch, e.log)
	if err != nil {
		return nil, err
	}

	for name, val := range result.Saved {
		e.vars[name] = val
	}
	return result.Saved, nil
}

// saveFields extracts the configured paths from a response into the
// variable table. Unresolvable paths are skipped so a missing field
// never aborts the demo.
func (e *Executor) saveFields(response any, save map[string]string) map[string]any {
	saved := make(map[string]any, len(save))
	for name, path := range save {
		val, ok := jsonpath.Resolve(response, path)
		if !ok {
			e.log.Warn("save path not found", "name", name, "path", path)
			continue
		}
		e.vars[name] = val
		saved[name] = val
	}
	return saved
}

// substitutable is the subtree of a step that participates in variable
// substitution.
func substitutable(step mstep.Step) map[string]any {
	tree := map[string]any{
		"url":       step.URL,
		"command":   step.Command,
		"query":     step.Query,
		"target":    step.Target,
		"statement": step.Statement,
		"condition": step.Condition,
	}
	if step.Headers != nil {
		headers := make(map[string]any, len(step.Headers))
		for k, v := range step.Headers {
			headers[k] = v
		}
		tree["headers"] = headers
	}
	if step.Body != nil {
		tree["body"] = step.Body
	}
	if step.Variables != nil {
		tree["variables"] = step.Variables
	}
	if step.Poll != nil {
		tree["poll_endpoint"] = step.Poll.Endpoint
	}
	return tree
}
