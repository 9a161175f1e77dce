package core

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	heartbeatKeyPrefix = "worker_heartbeat:"
	heartbeatTTL       = 15 * time.Second
	heartbeatInterval  = 5 * time.Second
)

// WorkerHeartbeat is the per-process status record a worker publishes to
// redis; the API surfaces it on /healthz.
type WorkerHeartbeat struct {
	WorkerID       string    `json:"worker_id"`
	Hostname       string    `json:"hostname"`
	PID            int       `json:"pid"`
	Concurrency    int       `json:"concurrency"`
	Status         string    `json:"status"` // starting|idle|busy
	ProcessedTotal int64     `json:"processed_total"`
	FailedTotal    int64     `json:"failed_total"`
	LastError      string    `json:"last_error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
}

// SaveHeartbeat writes the heartbeat with a TTL so dead workers age out.
func SaveHeartbeat(ctx context.Context, client *redis.Client, hb WorkerHeartbeat) error {
	hb.UpdatedAt = time.Now()
	data, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	return client.Set(ctx, heartbeatKeyPrefix+hb.WorkerID, data, heartbeatTTL).Err()
}

// ListHeartbeats returns all live worker heartbeats.
func ListHeartbeats(ctx context.Context, client *redis.Client) ([]WorkerHeartbeat, error) {
	out := []WorkerHeartbeat{}
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, heartbeatKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			data, err := client.Get(ctx, key).Bytes()
			if err != nil {
				continue // expired between SCAN and GET
			}
			var hb WorkerHeartbeat
			if err := json.Unmarshal(data, &hb); err != nil {
				continue
			}
			out = append(out, hb)
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

// HeartbeatState aggregates job counters for a single worker process and
// periodically flushes them to redis.
type HeartbeatState struct {
	mu      sync.Mutex
	hb      WorkerHeartbeat
	running int
}

func NewHeartbeatState(workerID, hostname string, concurrency int) *HeartbeatState {
	now := time.Now()
	return &HeartbeatState{
		hb: WorkerHeartbeat{
			WorkerID:    workerID,
			Hostname:    hostname,
			PID:         pid(),
			Concurrency: concurrency,
			Status:      "starting",
			StartedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// Start publishes immediately and then on every tick until ctx is done.
func (s *HeartbeatState) Start(ctx context.Context, client *redis.Client) {
	s.flush(ctx, client)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flush(ctx, client)
		}
	}
}

func (s *HeartbeatState) JobStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running++
	s.hb.Status = "busy"
}

func (s *HeartbeatState) JobFinished(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running--
	s.hb.ProcessedTotal++
	if err != nil {
		s.hb.FailedTotal++
		s.hb.LastError = err.Error()
	}
	if s.running == 0 {
		s.hb.Status = "idle"
	}
}

func (s *HeartbeatState) flush(ctx context.Context, client *redis.Client) {
	s.mu.Lock()
	s.hb.UptimeSeconds = int64(time.Since(s.hb.StartedAt).Seconds())
	hbCopy := s.hb
	s.mu.Unlock()
	_ = SaveHeartbeat(ctx, client, hbCopy)
}
