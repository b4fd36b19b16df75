package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/signoff/internal/clock"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/policy"
	"github.com/viant/signoff/service/approval"
	"github.com/viant/signoff/service/audit"
	"github.com/viant/signoff/service/event"
	"github.com/viant/signoff/service/identity"
	"github.com/viant/signoff/service/metrics"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted run: a draft followed by actions applied in order
// on a manual clock.
type Scenario struct {
	Start    time.Time        `yaml:"start"`
	Workflow *approval.Config `yaml:"workflow"`
	Users    []identity.User  `yaml:"users"`
	Draft    model.Draft      `yaml:"draft"`
	Actions  []Action         `yaml:"actions"`
}

// Action is one scripted step; exactly one field is expected to be set.
type Action struct {
	Respond  *RespondAction  `yaml:"respond,omitempty"`
	Delegate *DelegateAction `yaml:"delegate,omitempty"`
	Escalate *EscalateAction `yaml:"escalate,omitempty"`
	Withdraw *WithdrawAction `yaml:"withdraw,omitempty"`
	Advance  time.Duration   `yaml:"advance,omitempty"`
}

type RespondAction struct {
	Step     string         `yaml:"step"`
	Approver string         `yaml:"approver"`
	Decision model.Decision `yaml:"decision"`
	Reason   string         `yaml:"reason"`
}

type DelegateAction struct {
	Step string `yaml:"step"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type EscalateAction struct {
	Step    string                  `yaml:"step"`
	Trigger model.EscalationTrigger `yaml:"trigger"`
	Actor   string                  `yaml:"actor"`
}

type WithdrawAction struct {
	Actor  string `yaml:"actor"`
	Reason string `yaml:"reason"`
}

// Outcome reports how one action ended.
type Outcome struct {
	Action string              `json:"action"`
	Time   time.Time           `json:"time"`
	Status model.RequestStatus `json:"status"`
	Error  string              `json:"error,omitempty"`
}

// Report is the simulate output document.
type Report struct {
	Request  *model.Request    `json:"request"`
	Outcomes []Outcome         `json:"outcomes"`
	Events   []event.Topic     `json:"events"`
	Verified bool              `json:"verified"`
	Metrics  *metrics.Snapshot `json:"metrics"`
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a scripted approval scenario and print the outcome as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := afs.New().DownloadWithURL(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			scenario := &Scenario{}
			if err = yaml.Unmarshal(data, scenario); err != nil {
				return fmt.Errorf("failed to decode scenario %s: %w", args[0], err)
			}
			if scenario.Workflow == nil {
				config, err := root.config(ctx)
				if err != nil {
					return err
				}
				scenario.Workflow = config.Workflow
			}
			report, err := simulate(ctx, scenario)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}

func simulate(ctx context.Context, scenario *Scenario) (*Report, error) {
	start := scenario.Start
	if start.IsZero() {
		start = clock.Now()
	}
	manual := clock.NewManual(start)
	recorder := &event.Recorder{}
	options := []approval.Option{
		approval.WithClock(manual),
		approval.WithEventSink(recorder),
		approval.WithAuditSink(audit.NewMemory()),
		approval.WithLogger(zap.NewNop()),
	}
	if scenario.Workflow != nil {
		options = append(options, approval.WithConfig(scenario.Workflow))
	}
	if len(scenario.Users) > 0 {
		options = append(options, approval.WithIdentityProvider(identity.NewDirectory(scenario.Users...)))
	}
	srv, err := approval.New(options...)
	if err != nil {
		return nil, err
	}
	defer srv.Close()

	created, err := srv.CreateRequest(ctx, &scenario.Draft)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	for _, action := range scenario.Actions {
		name, err := apply(ctx, srv, manual, created.ID, action)
		outcome := Outcome{Action: name, Time: manual.Now()}
		if err != nil {
			outcome.Error = err.Error()
		}
		if current, err := srv.GetRequest(ctx, created.ID); err == nil {
			outcome.Status = current.Status
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	if report.Request, err = srv.GetRequest(ctx, created.ID); err != nil {
		return nil, err
	}
	report.Verified = audit.Verify(report.Request.AuditTrail) == nil
	report.Events = recorder.Topics(created.ID)
	if report.Metrics, err = srv.GetMetrics(ctx); err != nil {
		return nil, err
	}
	return report, nil
}

func apply(ctx context.Context, srv *approval.Service, manual *clock.Manual, requestID string, action Action) (string, error) {
	var err error
	switch {
	case action.Respond != nil:
		a := action.Respond
		_, err = srv.ProcessResponse(ctx, requestID, a.Step, &model.Response{Approver: a.Approver, Decision: a.Decision, Reason: a.Reason})
		return fmt.Sprintf("respond %s %s %s", a.Step, a.Approver, a.Decision), err
	case action.Delegate != nil:
		a := action.Delegate
		_, err = srv.DelegateApproval(ctx, requestID, a.Step, a.From, a.To)
		return fmt.Sprintf("delegate %s %s->%s", a.Step, a.From, a.To), err
	case action.Escalate != nil:
		a := action.Escalate
		if a.Actor != "" {
			ctx = policy.WithActor(ctx, &policy.Actor{ID: a.Actor})
		}
		_, err = srv.EscalateStep(ctx, requestID, a.Step, a.Trigger)
		return fmt.Sprintf("escalate %s", a.Step), err
	case action.Withdraw != nil:
		a := action.Withdraw
		_, err = srv.WithdrawRequest(ctx, requestID, a.Actor, a.Reason)
		return fmt.Sprintf("withdraw %s", a.Actor), err
	case action.Advance > 0:
		manual.Advance(action.Advance)
		return fmt.Sprintf("advance %s", action.Advance), nil
	}
	return "noop", fmt.Errorf("action has nothing set")
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
