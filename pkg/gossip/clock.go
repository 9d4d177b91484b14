package gossip

import (
	"strings"
	"time"
)

// timestampLayout matches the origin-node-produced, opaque, human
// readable timestamp format from the source system ("01JAN25 00:00:00utc").
const timestampLayout = "02Jan06 15:04:05"

// timestamp produces the human-readable, opaque-to-the-core timestamp
// string carried on every heartbeat and local snapshot entry.
func timestamp() string {
	return strings.ToUpper(time.Now().UTC().Format(timestampLayout)) + "utc"
}

// epochNow returns the current wall-clock time as fractional unix
// seconds. Per spec.md 9, epoch semantics are ambiguous in the source
// and must never be used for ordering — it is carried opaquely.
func epochNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
