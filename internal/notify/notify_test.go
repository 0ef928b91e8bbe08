package notify

import (
	"context"
	"encoding/json"
	"testing"
)

func TestQueueCollectsAndDrains(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()

	q.Notify(ctx, "🍦 Tim Tam Crunch added to cart!", SeveritySuccess)
	q.Notify(ctx, "   ", SeverityInfo)
	q.Notify(ctx, "Item removed from cart", Severity("warning"))

	pending := q.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(pending))
	}
	if pending[1].Severity != SeverityInfo {
		t.Fatalf("unknown severity should normalize to info, got %s", pending[1].Severity)
	}
	for _, n := range pending {
		if n.DismissAfter != 5000 {
			t.Fatalf("expected 5s dismiss, got %d", n.DismissAfter)
		}
		if !n.Announce {
			t.Fatalf("expected notification to be announced")
		}
	}

	drained := q.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected drain to return 2, got %d", len(drained))
	}
	if len(q.Drain()) != 0 {
		t.Fatalf("expected queue to be empty after drain")
	}
}

func TestTriggerHeader(t *testing.T) {
	header, err := TriggerHeader(nil)
	if err != nil || header != "" {
		t.Fatalf("expected empty header for no notifications, got %q err=%v", header, err)
	}

	header, err = TriggerHeader([]Notification{{Message: "hi", Severity: SeverityError, DismissAfter: 5000, Announce: true}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var payload map[string][]Notification
	if err := json.Unmarshal([]byte(header), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := payload[TriggerEvent]
	if len(got) != 1 || got[0].Message != "hi" || got[0].Severity != SeverityError {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if got[0].Role() != "alert" {
		t.Fatalf("error notifications should use alert role")
	}
}

func TestContextualForwardsToRequestQueue(t *testing.T) {
	q := NewQueue()
	ctx := WithNotifier(context.Background(), q)

	Contextual{}.Notify(ctx, "☀️ Light mode activated", SeverityInfo)
	Contextual{}.Notify(context.Background(), "dropped", SeverityInfo)

	if got := q.Drain(); len(got) != 1 || got[0].Role() != "status" {
		t.Fatalf("expected one status notification, got %+v", got)
	}
}
