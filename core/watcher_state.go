package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"
)

// WatcherHeartbeat is what a watcher publishes to Redis on every flush.
type WatcherHeartbeat struct {
	WatcherID           string    `json:"watcher_id"`
	Hostname            string    `json:"hostname"`
	PID                 int       `json:"pid"`
	Username            string    `json:"username,omitempty"`
	Status              string    `json:"status"` // starting|polling|guest|blocked
	UptimeSeconds       int64     `json:"uptime_seconds"`
	PollsTotal          int64     `json:"polls_total"`
	FailedTotal         int64     `json:"failed_total"`
	LastError           string    `json:"last_error,omitempty"`
	UnreadNotifications int       `json:"unread_notifications"`
	UnreadMessages      int       `json:"unread_messages"`
	MemoryBytes         uint64    `json:"memory_bytes"`
	NumGoroutine        int       `json:"num_goroutine"`
	StartedAt           time.Time `json:"started_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// UpdateRuntimeStats overwrites memory and goroutine figures with current values.
func (h *WatcherHeartbeat) UpdateRuntimeStats() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	h.MemoryBytes = ms.Sys
	h.NumGoroutine = runtime.NumGoroutine()
}

// SaveHeartbeat stores heartbeat JSON with TTL.
func SaveHeartbeat(ctx context.Context, client RedisClientRaw, hb WatcherHeartbeat) error {
	hb.UpdatedAt = time.Now()
	data, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	return client.Set(ctx, WatcherHeartbeatKey(hb.WatcherID), data, WatcherHeartbeatTTL).Err()
}

// NewWatcherID builds a unique identifier from hostname, pid and a random suffix.
func NewWatcherID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "watcher"
	}
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), randomHex(6))
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		for i := range b {
			b[i] = byte(i + 1)
		}
	}
	return hex.EncodeToString(b)
}

// WatcherState aggregates the counters of one watcher process.
type WatcherState struct {
	mu sync.Mutex
	hb WatcherHeartbeat
}

func NewWatcherState(watcherID string) *WatcherState {
	hostname, _ := os.Hostname()
	now := time.Now()
	return &WatcherState{hb: WatcherHeartbeat{
		WatcherID: watcherID,
		Hostname:  hostname,
		PID:       os.Getpid(),
		Status:    "starting",
		StartedAt: now,
		UpdatedAt: now,
	}}
}

// ObserveSession updates the status from a session snapshot.
func (s *WatcherState) ObserveSession(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case st.Loading:
		s.hb.Status = "starting"
	case st.IsGuest():
		s.hb.Status = "guest"
		s.hb.Username = ""
	case st.IsBlocked():
		s.hb.Status = "blocked"
		s.hb.Username = st.User.Username
	default:
		s.hb.Status = "polling"
		s.hb.Username = st.User.Username
	}
}

// PollFinished records one poll round.
func (s *WatcherState) PollFinished(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hb.PollsTotal++
	if err != nil {
		s.hb.FailedTotal++
		s.hb.LastError = err.Error()
	}
}

// SetUnread stores the latest unread counters.
func (s *WatcherState) SetUnread(notifications, messages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hb.UnreadNotifications = notifications
	s.hb.UnreadMessages = messages
}

// Snapshot returns a copy with uptime and runtime stats filled in.
func (s *WatcherState) Snapshot() WatcherHeartbeat {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hb.UptimeSeconds = int64(time.Since(s.hb.StartedAt).Seconds())
	s.hb.UpdateRuntimeStats()
	return s.hb
}

// Flush publishes the current snapshot.
func (s *WatcherState) Flush(ctx context.Context, client RedisClientRaw) error {
	return SaveHeartbeat(ctx, client, s.Snapshot())
}
