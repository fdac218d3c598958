package finance

import (
	"strings"
	"testing"

	"bitbucket.org/shoppulse/dashboard_backend/models"
)

func TestDiffOrderChange_StatusChange(t *testing.T) {
	prior := &models.OrderChangeRecord{NewStatus: "processing", NewTotal: d("100")}
	event := Order{ID: 42, Status: "completed", Total: d("100")}

	changeType, summary := DiffOrderChange(prior, event)
	if changeType != models.OrderChangeStatusChanged {
		t.Fatalf("expected status_changed, got %s", changeType)
	}
	if !strings.Contains(summary, `"processing"`) || !strings.Contains(summary, `"completed"`) {
		t.Fatalf("summary missing old/new status: %s", summary)
	}
}

func TestDiffOrderChange_TotalChange(t *testing.T) {
	prior := &models.OrderChangeRecord{NewStatus: "processing", NewTotal: d("100")}
	event := Order{ID: 42, Status: "processing", Total: d("150")}

	changeType, summary := DiffOrderChange(prior, event)
	if changeType != models.OrderChangeTotalChanged {
		t.Fatalf("expected total_changed, got %s", changeType)
	}
	if !strings.Contains(summary, "100.00") || !strings.Contains(summary, "150.00") {
		t.Fatalf("summary missing old/new total: %s", summary)
	}
}

func TestDiffOrderChange_BothChanged(t *testing.T) {
	prior := &models.OrderChangeRecord{NewStatus: "processing", NewTotal: d("100")}
	event := Order{ID: 42, Status: "refunded", Total: d("0")}

	changeType, _ := DiffOrderChange(prior, event)
	if changeType != models.OrderChangeUpdated {
		t.Fatalf("expected updated for a combined change, got %s", changeType)
	}
}

func TestDiffOrderChange_NoPriorRecord(t *testing.T) {
	changeType, summary := DiffOrderChange(nil, Order{ID: 42, Status: "completed", Total: d("100")})
	if changeType != models.OrderChangeUpdated {
		t.Fatalf("expected updated when no prior state exists, got %s", changeType)
	}
	if !strings.Contains(summary, "no prior state") {
		t.Fatalf("summary should flag the missing before-image: %s", summary)
	}
}

func TestOrderItemsCount(t *testing.T) {
	order := Order{
		LineItems: []OrderLineItem{
			{Name: "shirt", Quantity: 2},
			{Name: "hat", Quantity: 3},
		},
	}
	if got := order.ItemsCount(); got != 5 {
		t.Fatalf("expected 5 items, got %d", got)
	}
}
