package notify

import (
	"encoding/json"
	"testing"

	"chatpro/internal/domain"
)

type recordingPublisher struct {
	published []domain.Message
}

func (p *recordingPublisher) Publish(msg domain.Message) {
	p.published = append(p.published, msg)
}

func TestFanoutPublishesToAllDestinations(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{}

	Fanout{a, b}.Publish(domain.Message{ID: 7, Text: "hola"})

	if len(a.published) != 1 || len(b.published) != 1 {
		t.Fatalf("expected one publish per destination, got %d and %d", len(a.published), len(b.published))
	}
	if a.published[0].ID != 7 || b.published[0].ID != 7 {
		t.Fatalf("unexpected messages: %+v / %+v", a.published[0], b.published[0])
	}
}

func TestEnvelopeRoundTripKeepsOrigin(t *testing.T) {
	payload, err := json.Marshal(envelope{
		Origin:  "instance-1",
		Message: domain.Message{ID: 3, Text: "hi", Sender: "alice", Recipient: "bob"},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	env, err := decodeEnvelope(payload)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Origin != "instance-1" {
		t.Fatalf("expected origin instance-1, got %q", env.Origin)
	}
	if env.Message.ID != 3 || env.Message.Sender != "alice" {
		t.Fatalf("unexpected message: %+v", env.Message)
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	if _, err := decodeEnvelope([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}
