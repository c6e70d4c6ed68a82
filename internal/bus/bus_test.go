package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testEnvelope struct {
	JobID string `json:"job_id"`
	Seq   int    `json:"seq"`
}

func newTestBus(t *testing.T) (*Bus, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, 10), client
}

func collect(t *testing.T, ch <-chan Message, n int) []Message {
	t.Helper()
	var out []Message
	deadline := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d of %d messages", len(out), n)
			}
			out = append(out, msg)
		case <-deadline:
			t.Fatalf("timed out after %d of %d messages", len(out), n)
		}
	}
	return out
}

func TestPublishSubscribeOrder(t *testing.T) {
	b, _ := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := b.Publish(ctx, StreamAudioUploaded, testEnvelope{JobID: "job", Seq: i}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	msgs := collect(t, b.Subscribe(ctx, StreamAudioUploaded, CursorStart), 3)
	for i, msg := range msgs {
		var env testEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			t.Fatalf("unmarshal message %d: %v", i, err)
		}
		if env.Seq != i {
			t.Errorf("message %d has seq %d, want publish order preserved", i, env.Seq)
		}
	}
}

func TestSubscribeResumesFromCursor(t *testing.T) {
	b, _ := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 4; i++ {
		if err := b.Publish(ctx, StreamAudioUploaded, testEnvelope{Seq: i}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	first := collect(t, b.Subscribe(ctx, StreamAudioUploaded, CursorStart), 2)
	cursor := first[1].ID

	// A fresh subscription from the recorded cursor sees only what came after.
	rest := collect(t, b.Subscribe(ctx, StreamAudioUploaded, cursor), 2)
	var env testEnvelope
	if err := json.Unmarshal(rest[0].Data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Seq != 2 {
		t.Errorf("resumed read starts at seq %d, want 2", env.Seq)
	}
}

func TestSubscribeSeesLaterPublishes(t *testing.T) {
	b, _ := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx, StreamTranscriptionComplete, CursorStart)

	if err := b.Publish(ctx, StreamTranscriptionComplete, testEnvelope{JobID: "late"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := collect(t, ch, 1)
	var env testEnvelope
	if err := json.Unmarshal(msgs[0].Data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.JobID != "late" {
		t.Errorf("job_id = %q, want %q", env.JobID, "late")
	}
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	b, _ := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := b.Subscribe(ctx, StreamAudioUploaded, CursorStart)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel, got a message")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestPublishTrimsStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	b := New(client, 5)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if err := b.Publish(ctx, StreamAudioUploaded, testEnvelope{Seq: i}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	n, err := client.XLen(ctx, StreamAudioUploaded).Result()
	if err != nil {
		t.Fatalf("XLen: %v", err)
	}
	// Approximate trimming may keep a few extra entries but must cap growth.
	if n >= 50 {
		t.Errorf("stream length %d, expected trimming to bound it", n)
	}
}

func TestDefaultsApplied(t *testing.T) {
	b := New(nil, 0)
	if b.maxLen != DefaultMaxLen {
		t.Errorf("maxLen = %d, want default %d", b.maxLen, DefaultMaxLen)
	}
}
