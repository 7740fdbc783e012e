package core

import (
	"context"
	"encoding/json"
)

// StatusService reads watcher heartbeats back from Redis.
type StatusService struct {
	redis RedisClientRaw
}

func NewStatusService(redis RedisClientRaw) *StatusService {
	return &StatusService{redis: redis}
}

// Watchers returns every heartbeat still alive in Redis. Entries that vanish
// or fail to decode during the scan are skipped.
func (s *StatusService) Watchers(ctx context.Context) ([]WatcherHeartbeat, error) {
	iter := s.redis.Scan(ctx, 0, WatcherHeartbeatPrefix+"*", 100).Iterator()
	res := []WatcherHeartbeat{}
	for iter.Next(ctx) {
		val, err := s.redis.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var hb WatcherHeartbeat
		if err := json.Unmarshal([]byte(val), &hb); err != nil {
			continue
		}
		res = append(res, hb)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// WatcherByID returns one watcher's heartbeat.
func (s *StatusService) WatcherByID(ctx context.Context, id string) (*WatcherHeartbeat, error) {
	val, err := s.redis.Get(ctx, WatcherHeartbeatKey(id)).Result()
	if err != nil {
		return nil, err
	}
	var hb WatcherHeartbeat
	if err := json.Unmarshal([]byte(val), &hb); err != nil {
		return nil, err
	}
	return &hb, nil
}

// SessionStatus is the public view of the host's session.
type SessionStatus struct {
	Guest       bool   `json:"guest"`
	Loading     bool   `json:"loading"`
	Admin       bool   `json:"admin"`
	Blocked     bool   `json:"blocked"`
	BlockReason string `json:"block_reason,omitempty"`
	Username    string `json:"username,omitempty"`
}

func SessionStatusOf(s State) SessionStatus {
	st := SessionStatus{
		Guest:       s.IsGuest(),
		Loading:     s.Loading,
		Admin:       s.IsAdmin(),
		Blocked:     s.IsBlocked(),
		BlockReason: s.BlockReason,
	}
	if s.User != nil {
		st.Username = s.User.Username
	}
	return st
}
