package agent

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func interruptedRemovalMessage() *ai.Message {
	return &ai.Message{
		Role: ai.RoleModel,
		Content: []*ai.Part{
			{Kind: ai.PartText, Text: "Let me check that trip first."},
			{
				Kind: ai.PartToolRequest,
				ToolRequest: &ai.ToolRequest{
					Name:  "remove_vehicle_from_trip",
					Ref:   "call-1",
					Input: map[string]any{"trip_display_name": "Bulk - 00:01"},
				},
				Metadata: map[string]any{
					"interrupt": map[string]any{
						"confirmationType": "dangerous-operation",
						"consequence":      "WARNING: Trip 'Bulk - 00:01' on route 'Path-1 - 08:30' is already ~25% booked.",
						"dangerLevel":      "Dangerous",
						"details":          map[string]any{"trip": "Bulk - 00:01"},
					},
				},
			},
		},
	}
}

func TestInterruptFromMessage(t *testing.T) {
	ev := InterruptFromMessage(interruptedRemovalMessage())
	if ev == nil {
		t.Fatal("InterruptFromMessage() = nil, want event")
	}

	if ev.ToolName != "remove_vehicle_from_trip" {
		t.Errorf("ToolName = %q, want remove_vehicle_from_trip", ev.ToolName)
	}
	if got := ev.StringParam("trip_display_name"); got != "Bulk - 00:01" {
		t.Errorf("trip parameter = %q, want Bulk - 00:01", got)
	}
	if ev.DangerLevel != "Dangerous" {
		t.Errorf("DangerLevel = %q, want Dangerous", ev.DangerLevel)
	}
	if ev.Consequence == "" {
		t.Error("Consequence is empty, want warning text")
	}
	if ev.Details["trip"] != "Bulk - 00:01" {
		t.Errorf("Details[trip] = %v, want Bulk - 00:01", ev.Details["trip"])
	}
	if ev.Raw() == nil || ev.Raw().ToolRequest == nil {
		t.Error("Raw() lost the pending tool request part")
	}
}

func TestInterruptFromMessageFallback(t *testing.T) {
	// No interrupt metadata: the last tool request part is the paused one.
	msg := &ai.Message{
		Role: ai.RoleModel,
		Content: []*ai.Part{
			{
				Kind: ai.PartToolRequest,
				ToolRequest: &ai.ToolRequest{
					Name:  "get_trip_status",
					Input: map[string]any{"trip_display_name": "Bulk - 00:01"},
				},
			},
			{
				Kind: ai.PartToolRequest,
				ToolRequest: &ai.ToolRequest{
					Name:  "remove_vehicle_from_trip",
					Ref:   "call-2",
					Input: map[string]any{"trip_display_name": "Bulk - 00:01"},
				},
			},
		},
	}

	ev := InterruptFromMessage(msg)
	if ev == nil {
		t.Fatal("InterruptFromMessage() = nil, want fallback event")
	}
	if ev.ToolName != "remove_vehicle_from_trip" {
		t.Errorf("ToolName = %q, want the last tool request", ev.ToolName)
	}
	if ev.Consequence != "" {
		t.Errorf("Consequence = %q, want empty without metadata", ev.Consequence)
	}
}

func TestInterruptFromMessageNoRequest(t *testing.T) {
	if ev := InterruptFromMessage(nil); ev != nil {
		t.Errorf("InterruptFromMessage(nil) = %+v, want nil", ev)
	}

	textOnly := &ai.Message{
		Role:    ai.RoleModel,
		Content: []*ai.Part{{Kind: ai.PartText, Text: "done"}},
	}
	if ev := InterruptFromMessage(textOnly); ev != nil {
		t.Errorf("InterruptFromMessage(text only) = %+v, want nil", ev)
	}
}

func TestInterruptToolResponse(t *testing.T) {
	ev := InterruptFromMessage(interruptedRemovalMessage())
	if ev == nil {
		t.Fatal("InterruptFromMessage() = nil")
	}

	output := map[string]any{"status": "success", "message": "Removed vehicle 'KA-01-1111' and driver 'Amit' from trip 'Bulk - 00:01'."}
	resp := ev.ToolResponse(output)
	if resp == nil {
		t.Fatal("ToolResponse() = nil")
	}

	if resp.ToolResponse == nil {
		t.Fatal("response part has no ToolResponse")
	}
	if resp.ToolResponse.Name != "remove_vehicle_from_trip" {
		t.Errorf("Name = %q, want remove_vehicle_from_trip", resp.ToolResponse.Name)
	}
	if resp.ToolResponse.Ref != "call-1" {
		t.Errorf("Ref = %q, want call-1 (copied for correlation)", resp.ToolResponse.Ref)
	}
	if resp.Metadata["interruptResponse"] != true {
		t.Error("response part missing interruptResponse metadata")
	}

	out, ok := resp.ToolResponse.Output.(map[string]any)
	if !ok || out["status"] != "success" {
		t.Errorf("Output = %v, want the supplied result", resp.ToolResponse.Output)
	}
}

func TestInterruptToolResponseNil(t *testing.T) {
	var ev *InterruptEvent
	if resp := ev.ToolResponse("anything"); resp != nil {
		t.Error("nil event should build no response")
	}
}

func TestRejectedOutput(t *testing.T) {
	out := RejectedOutput("booking would be lost")
	if out["status"] != "rejected" {
		t.Errorf("status = %v, want rejected", out["status"])
	}
	if msg, _ := out["message"].(string); msg != "Operator rejected: booking would be lost" {
		t.Errorf("message = %q", msg)
	}

	out = RejectedOutput("")
	if msg, _ := out["message"].(string); msg != "Operator rejected this operation" {
		t.Errorf("message = %q", msg)
	}
}
