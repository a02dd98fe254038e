// Package mstep models one unit of a scripted demo. Steps are authored
// in YAML in either a concise spelling ("rest: GET /users") or an
// explicit one ("step: rest" plus fields); both normalize to the same
// struct with the kind discriminant set once at parse time.
package mstep

import (
	"fmt"
	"strings"
	"time"

	"stagehand/engine/pkg/model/mform"

	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindRest    Kind = "rest"
	KindGraphQL Kind = "graphql"
	KindShell   Kind = "shell"
	KindBrowser Kind = "browser"
	KindCode    Kind = "code"
	KindWait    Kind = "wait"
	KindAssert  Kind = "assert"
	KindDB      Kind = "db"
)

// PollConfig drives the bounded retry loop of an asynchronous step. It
// is read once per step invocation and discarded after the terminal
// state.
type PollConfig struct {
	Endpoint    string            `yaml:"endpoint" json:"endpoint"`
	SuccessWhen string            `yaml:"success_when" json:"success_when"`
	FailureWhen string            `yaml:"failure_when,omitempty" json:"failure_when,omitempty"`
	Interval    float64           `yaml:"interval,omitempty" json:"interval,omitempty"`
	MaxAttempts int               `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	Save        map[string]string `yaml:"save,omitempty" json:"save,omitempty"`
}

// IntervalDuration converts the author's interval (seconds) to a
// duration; zero means "use the default".
func (p PollConfig) IntervalDuration() time.Duration {
	return time.Duration(p.Interval * float64(time.Second))
}

// Step is one unit of a scripted demo.
type Step struct {
	Kind Kind
	Name string

	// rest
	Method  string
	URL     string
	Headers map[string]string
	Body    map[string]any

	// graphql
	Query     string
	Variables map[string]any

	// shell
	Command string

	// browser
	Target string

	// code
	Source string

	// wait
	Seconds float64

	// assert
	Condition string

	// db
	Statement string

	Save     map[string]string
	Poll     *PollConfig
	Defaults map[string]any
	Fields   []mform.FieldOverride
}

type rawStep struct {
	Step string `yaml:"step"`
	Name string `yaml:"name"`

	// Concise spellings; presence selects the kind.
	Rest    string   `yaml:"rest"`
	GraphQL string   `yaml:"graphql"`
	Shell   string   `yaml:"shell"`
	Browser string   `yaml:"browser"`
	Code    string   `yaml:"code"`
	Wait    *float64 `yaml:"wait"`
	Assert  string   `yaml:"assert"`
	DB      string   `yaml:"db"`

	Method    string            `yaml:"method"`
	URL       string            `yaml:"url"`
	Headers   map[string]string `yaml:"headers"`
	Body      map[string]any    `yaml:"body"`
	Query     string            `yaml:"query"`
	Variables map[string]any    `yaml:"variables"`
	Command   string            `yaml:"command"`
	Target    string            `yaml:"target"`
	Source    string            `yaml:"source"`
	Seconds   float64           `yaml:"seconds"`
	Condition string            `yaml:"condition"`
	Statement string            `yaml:"statement"`

	Save     map[string]string     `yaml:"save"`
	Poll     *PollConfig           `yaml:"poll"`
	Defaults map[string]any        `yaml:"defaults"`
	Fields   []mform.FieldOverride `yaml:"fields"`
}

// UnmarshalYAML accepts both spellings and sets the discriminant once,
// so executors switch on Kind instead of probing for key presence.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw rawStep
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*s = Step{
		Name:      raw.Name,
		Method:    raw.Method,
		URL:       raw.URL,
		Headers:   raw.Headers,
		Body:      raw.Body,
		Query:     raw.Query,
		Variables: raw.Variables,
		Command:   raw.Command,
		Target:    raw.Target,
		Source:    raw.Source,
		Seconds:   raw.Seconds,
		Condition: raw.Condition,
		Statement: raw.Statement,
		Save:      raw.Save,
		Poll:      raw.Poll,
		Defaults:  raw.Defaults,
		Fields:    raw.Fields,
	}

	switch {
	case raw.Rest != "":
		s.Kind = KindRest
		s.Method, s.URL = splitRestShorthand(raw.Rest)
	case raw.GraphQL != "":
		s.Kind = KindGraphQL
		s.Query = raw.GraphQL
	case raw.Shell != "":
		s.Kind = KindShell
		s.Command = raw.Shell
	case raw.Browser != "":
		s.Kind = KindBrowser
		s.Target = raw.Browser
	case raw.Code != "":
		s.Kind = KindCode
		s.Source = raw.Code
	case raw.Wait != nil:
		s.Kind = KindWait
		s.Seconds = *raw.Wait
	case raw.Assert != "":
		s.Kind = KindAssert
		s.Condition = raw.Assert
	case raw.DB != "":
		s.Kind = KindDB
		s.Statement = raw.DB
	case raw.Step != "":
		kind := Kind(raw.Step)
		if !knownKind(kind) {
			return fmt.Errorf("unknown step kind %q", raw.Step)
		}
		s.Kind = kind
	default:
		return fmt.Errorf("step declares no kind")
	}

	if s.Kind == KindRest && s.Method == "" {
		s.Method = "GET"
	}
	return nil
}

func knownKind(k Kind) bool {
	switch k {
	case KindRest, KindGraphQL, KindShell, KindBrowser, KindCode, KindWait, KindAssert, KindDB:
		return true
	default:
		return false
	}
}

// splitRestShorthand parses "METHOD /path" or a bare URL; the method
// defaults to GET.
func splitRestShorthand(raw string) (method, url string) {
	raw = strings.TrimSpace(raw)
	if head, rest, ok := strings.Cut(raw, " "); ok {
		if isHTTPMethod(head) {
			return strings.ToUpper(head), strings.TrimSpace(rest)
		}
	}
	return "GET", raw
}

func isHTTPMethod(s string) bool {
	switch strings.ToUpper(s) {
	case "GET", "PUT", "POST", "DELETE", "OPTIONS", "HEAD", "PATCH", "TRACE":
		return true
	default:
		return false
	}
}
