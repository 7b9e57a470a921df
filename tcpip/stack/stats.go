package stack

import "sync/atomic"

// RouteStatsLocations is the number of per-call-site buckets kept for the
// address and netmask lookups. Callers tag each call with a small integer
// identifying the call site; out-of-range tags are counted in the totals
// only.
const RouteStatsLocations = 14

// RoutingStats are diagnostic counters over the lookup engine. They grow
// monotonically, never influence control flow, and are updated atomically
// because lookups may run from several tasks at once. Read them with
// atomic loads.
type RoutingStats struct {
	// Matching counts calls to MatchingEndpoint.
	Matching uint64

	// OnIP, OnMAC and OnNetMask count calls to the corresponding
	// lookups.
	OnIP      uint64
	OnMAC     uint64
	OnNetMask uint64

	// IPLocations and MaskLocations break the OnIP and OnNetMask totals
	// down by call-site tag.
	IPLocations   [RouteStatsLocations]uint64
	MaskLocations [RouteStatsLocations]uint64
}

// RouteStats is the process-wide statistics instance.
var RouteStats RoutingStats

func statCount(c *uint64) {
	atomic.AddUint64(c, 1)
}
