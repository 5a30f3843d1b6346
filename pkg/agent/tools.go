package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider"
)

// Tool names the model may invoke.
const (
	toolEndSession = "EndSession"
	toolRaiseAlert = "RaiseAlert"
)

// checkInTools is the provider-agnostic tool schema exposed on every session.
func checkInTools() []domain.ToolDef {
	return []domain.ToolDef{
		{
			Name:        toolEndSession,
			Description: "End the session after a successful check-in when the user is doing well and being productive.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reason": map[string]any{
						"type":        "string",
						"description": "The reason for ending the session (e.g., 'User is being productive')",
					},
				},
				"required": []string{"reason"},
			},
		},
		{
			Name:        toolRaiseAlert,
			Description: "Raise an alert when the user is wasting time or not being productive.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reason": map[string]any{
						"type":        "string",
						"description": "The reason for raising the alert (e.g., 'User is wasting time on social media')",
					},
					"urgency": map[string]any{
						"type":        "string",
						"enum":        []string{"low", "medium", "high"},
						"description": "The urgency level of the alert",
					},
				},
				"required": []string{"reason", "urgency"},
			},
		},
	}
}

// Alerter presents an alert to the user. Implementations are keyed by
// urgency: low is a gentle reminder, medium an attention banner, high an
// urgent banner.
type Alerter interface {
	Alert(reason, urgency string)
}

// ConsoleAlerter prints alert banners to stdout.
type ConsoleAlerter struct{}

// Alert prints a banner appropriate for the urgency level.
func (ConsoleAlerter) Alert(reason, urgency string) {
	switch urgency {
	case "high":
		fmt.Println("\n!!! HIGH PRIORITY ALERT !!!")
		fmt.Printf("REASON: %s\n", reason)
		fmt.Println("!!!!!!!!!!!!!!!!!!!!!!!!!!!")
	case "medium":
		fmt.Println("\n** ATTENTION NEEDED **")
		fmt.Printf("REASON: %s\n", reason)
		fmt.Println("**********************")
	default:
		fmt.Printf("\nGentle reminder: %s\n", reason)
	}
}

// toolDispatcher interprets normalized tool-call events, executes the two
// supported actions, and reports results back through the active adapter.
type toolDispatcher struct {
	adapter provider.Adapter
	state   *cycleState
	alerter Alerter
	// grace is how long to wait after acknowledging EndSession before
	// disconnecting, so a trailing spoken confirmation can complete.
	grace time.Duration
}

// handleToolCalls processes one batch of calls in input order. EndSession
// acknowledges immediately, returns early without processing the rest of the
// batch, then disconnects after the grace period. All other results are
// batched and sent together after the loop.
func (d *toolDispatcher) handleToolCalls(ctx context.Context, calls []domain.ToolCall) {
	var results []domain.ToolResult

	for _, call := range calls {
		slog.Info("Executing tool", "function", call.Name, "callID", call.CallID, "arguments", call.Arguments)

		switch call.Name {
		case toolEndSession:
			d.endSession(ctx, call)
			// Once disconnect is requested, no further tool effects from
			// this batch are applied.
			return

		case toolRaiseAlert:
			results = append(results, d.raiseAlert(call))

		default:
			slog.Warn("Unknown tool called", "function", call.Name)
			results = append(results, domain.ToolResult{
				Name:   call.Name,
				CallID: call.CallID,
				Result: map[string]any{"error": "Unknown function: " + call.Name},
			})
		}
	}

	if len(results) == 0 {
		return
	}
	if err := d.adapter.SendToolResponse(ctx, results); err != nil {
		slog.Error("Failed to send tool responses", "error", err)
	}
}

// endSession acknowledges the call, waits out the grace period so the model
// can speak a final confirmation, then disconnects.
func (d *toolDispatcher) endSession(ctx context.Context, call domain.ToolCall) {
	reason := call.StringArg("reason", "Check-in completed successfully")
	slog.Info("Session end requested by tool", "reason", reason)

	d.state.requestDisconnect("tool_disconnect: " + reason)

	ack := []domain.ToolResult{{
		Name:   call.Name,
		CallID: call.CallID,
		Result: map[string]any{
			"status":  "success",
			"message": "Session will be disconnected",
		},
	}}
	if err := d.adapter.SendToolResponse(ctx, ack); err != nil {
		slog.Error("Failed to send end-session ack", "error", err)
	}

	slog.Info("Waiting for final confirmation before disconnect", "grace", d.grace)
	select {
	case <-time.After(d.grace):
	case <-ctx.Done():
	}

	if err := d.adapter.Disconnect(); err != nil {
		slog.Warn("Error disconnecting after end-session", "error", err)
	}
}

// raiseAlert marks the alarm state and presents the alert locally.
func (d *toolDispatcher) raiseAlert(call domain.ToolCall) domain.ToolResult {
	reason := call.StringArg("reason", "User needs attention")
	urgency := call.StringArg("urgency", "medium")
	slog.Warn("Alert triggered", "reason", reason, "urgency", urgency)

	d.state.setAlarm()
	d.alerter.Alert(reason, urgency)

	return domain.ToolResult{
		Name:   call.Name,
		CallID: call.CallID,
		Result: map[string]any{
			"status":  "success",
			"message": "Alarm sounded: " + reason,
		},
	}
}
