package events

import (
	"encoding/json"
	"testing"

	"github.com/doannc02/exam-process-service/internal/models"
)

func TestMockPublisherEnvelope(t *testing.T) {
	publisher := NewMockPublisher()

	comment := "ready for review"
	err := publisher.Publish(EventProposalStatusChanged, ProposalStatusChangedData{
		ProposalID:      12,
		PlanCode:        "PLAN-2026-HK1",
		FromStatus:      models.StatusInProgress,
		ToStatus:        models.StatusPendingApproval,
		ChangedByUserID: 3,
		ExamSetsUpdated: 2,
		ExamsUpdated:    5,
		Comment:         &comment,
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}

	event := published[0]
	t.Run("envelope fields", func(t *testing.T) {
		if event.ID == "" {
			t.Error("event must carry an id")
		}
		if event.Type != EventProposalStatusChanged {
			t.Errorf("expected %s, got %s", EventProposalStatusChanged, event.Type)
		}
		if event.Version != "1.0" {
			t.Errorf("expected version 1.0, got %s", event.Version)
		}
		if event.Timestamp.IsZero() {
			t.Error("event must carry a timestamp")
		}
	})

	t.Run("payload", func(t *testing.T) {
		var data ProposalStatusChangedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if data.ProposalID != 12 || data.PlanCode != "PLAN-2026-HK1" {
			t.Errorf("wrong identity in payload: %+v", data)
		}
		if data.FromStatus != models.StatusInProgress || data.ToStatus != models.StatusPendingApproval {
			t.Errorf("wrong transition in payload: %s -> %s", data.FromStatus, data.ToStatus)
		}
		if data.ExamSetsUpdated != 2 || data.ExamsUpdated != 5 {
			t.Errorf("wrong cascade counts: %+v", data)
		}
		if data.Comment == nil || *data.Comment != comment {
			t.Error("comment was dropped")
		}
	})
}

func TestMockPublisherClear(t *testing.T) {
	publisher := NewMockPublisher()
	if err := publisher.Publish(EventProposalCreated, ProposalLifecycleData{ProposalID: 1}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	publisher.ClearEvents()
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("expected no events after clear, got %d", len(got))
	}
}

func TestNoopPublisher(t *testing.T) {
	var publisher Publisher = NoopPublisher{}
	if err := publisher.Publish(EventProposalDeleted, ProposalLifecycleData{ProposalID: 1}); err != nil {
		t.Errorf("noop publish must never fail, got %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Errorf("noop close must never fail, got %v", err)
	}
}
