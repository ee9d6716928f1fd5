package domain

import (
	"fmt"
	"strconv"

	"github.com/segmentio/ksuid"
)

// Entity is anything the repository can persist: a stable id plus a kind tag
// used to namespace storage keys.
type Entity interface {
	EntityKey() string
	EntityKind() string
}

// entity kind tags, used as storage key prefixes
const (
	AthleteKind   = "athlete"
	DeviceKind    = "device"
	RaceKind      = "race"
	TelemetryKind = "lanetelemetry"
)

// NewID returns a fresh sortable id.
func NewID() string { return ksuid.New().String() }

// StoreKey builds the value key for one entity: "<kind>:<id>".
func StoreKey(kind, id string) string { return fmt.Sprintf("%s:%s", kind, id) }

// CollectionKey builds the key-set name for a kind: "Keys:<kind>".
func CollectionKey(kind string) string { return fmt.Sprintf("Keys:%s", kind) }

// ParseID checks that a string is a well formed ksuid and returns it.
func ParseID(s string) (string, bool) {
	if _, err := ksuid.Parse(s); err != nil {
		return "", false
	}
	return s, true
}

// ParseIntID parses an integer actor instance id.
func ParseIntID(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

// ParseStringID passes any non-empty string through.
func ParseStringID(s string) (string, bool) {
	return s, s != ""
}
