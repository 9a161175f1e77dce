package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHeartbeatRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	hb := WorkerHeartbeat{
		WorkerID:    "host:1:abcd1234",
		Hostname:    "host",
		PID:         1,
		Concurrency: 2,
		Status:      "idle",
		StartedAt:   time.Now(),
	}
	if err := SaveHeartbeat(ctx, client, hb); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ListHeartbeats(ctx, client)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].WorkerID != hb.WorkerID || got[0].Status != "idle" {
		t.Fatalf("unexpected heartbeats: %+v", got)
	}

	// Dead workers age out with the key TTL.
	mr.FastForward(heartbeatTTL + time.Second)
	got, err = ListHeartbeats(ctx, client)
	if err != nil {
		t.Fatalf("list after expiry: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired heartbeat to vanish, got %+v", got)
	}
}

func TestHeartbeatStateCounters(t *testing.T) {
	state := NewHeartbeatState("w1", "host", 2)

	state.JobStarted()
	state.JobFinished(nil)
	state.JobStarted()
	state.JobFinished(errors.New("delete failed"))

	state.mu.Lock()
	hb := state.hb
	state.mu.Unlock()

	if hb.ProcessedTotal != 2 || hb.FailedTotal != 1 {
		t.Fatalf("processed=%d failed=%d", hb.ProcessedTotal, hb.FailedTotal)
	}
	if hb.Status != "idle" {
		t.Fatalf("status = %q, want idle after all jobs done", hb.Status)
	}
	if hb.LastError != "delete failed" {
		t.Fatalf("last error = %q", hb.LastError)
	}
}
