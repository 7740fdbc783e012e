package core

import "time"

// Redis key layout and TTLs shared by the credential store and the watcher heartbeat.
const (
	CredentialKeyPrefix    = "buzzy:credential:"
	WatcherHeartbeatPrefix = "buzzy:watcher:"
	WatcherHeartbeatTTL    = 45 * time.Second
)

// CredentialKeyFor returns the hash key holding the credential of a slot.
func CredentialKeyFor(slot string) string {
	if slot == "" {
		slot = "default"
	}
	return CredentialKeyPrefix + slot
}

// WatcherHeartbeatKey returns Redis key for given watcher ID.
func WatcherHeartbeatKey(id string) string {
	return WatcherHeartbeatPrefix + id
}
