package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/echobrief/api/internal/model"
)

func newTestClient(jobID string) *Client {
	return &Client{
		JobID: jobID,
		Send:  make(chan []byte, 8),
	}
}

func receiveResult(t *testing.T, c *Client) model.ResultMessage {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg model.ResultMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal result message: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return model.ResultMessage{}
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message delivered: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastResultReachesJobClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newTestClient("job-1")
	b := newTestClient("job-1")
	hub.Register(a)
	hub.Register(b)

	hub.BroadcastResult("job-1", "the summary")

	for _, c := range []*Client{a, b} {
		msg := receiveResult(t, c)
		if msg.Status != model.ResultStatusDone {
			t.Errorf("status = %q, want done", msg.Status)
		}
		if msg.Summary != "the summary" {
			t.Errorf("summary = %q", msg.Summary)
		}
		if msg.JobID != "job-1" {
			t.Errorf("job_id = %q", msg.JobID)
		}
	}
}

func TestBroadcastIsScopedToJob(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	mine := newTestClient("job-1")
	other := newTestClient("job-2")
	hub.Register(mine)
	hub.Register(other)

	hub.BroadcastResult("job-1", "s")

	receiveResult(t, mine)
	assertNoMessage(t, other)
}

func TestBroadcastErrorCarriesMessage(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient("job-1")
	hub.Register(c)

	hub.BroadcastError("job-1", "Transcription failed: boom")

	msg := receiveResult(t, c)
	if msg.Status != model.ResultStatusError {
		t.Errorf("status = %q, want error", msg.Status)
	}
	if msg.Error != "Transcription failed: boom" {
		t.Errorf("error = %q", msg.Error)
	}
	if msg.Summary != "" {
		t.Errorf("summary should be empty on error, got %q", msg.Summary)
	}
}

func TestBroadcastWithNoClientsIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Nothing to assert beyond not blocking or panicking: results are
	// fire-and-forget when no connection is registered.
	hub.BroadcastResult("nobody-listening", "s")

	c := newTestClient("nobody-listening")
	hub.Register(c)
	assertNoMessage(t, c)
}

func TestUnregisteredClientStopsReceiving(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient("job-1")
	hub.Register(c)
	hub.Unregister(c)

	// Unregister closes the send channel.
	select {
	case _, ok := <-c.Send:
		if ok {
			t.Error("expected closed channel after unregister")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed after unregister")
	}

	hub.BroadcastResult("job-1", "s")
}

func TestStalledClientIsDroppedOthersStillDelivered(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	stalled := &Client{JobID: "job-1", Send: make(chan []byte)} // unbuffered, never read
	healthy := newTestClient("job-1")
	hub.Register(stalled)
	hub.Register(healthy)

	hub.BroadcastResult("job-1", "s")

	msg := receiveResult(t, healthy)
	if msg.Summary != "s" {
		t.Errorf("healthy client missed delivery, got %+v", msg)
	}
}
