// Package presence records which agents are currently connected, as
// TTL-bound liveness markers refreshed by heartbeats.
package presence

import (
	"context"
	"fmt"
	"time"
)

// Tracker maintains per-(organization, agent) liveness markers. Heartbeat is
// idempotent; a marker expires on its own when heartbeats stop, so no
// background sweep is needed. The dispatch engine does not consult the
// tracker; IsOnline serves the presence endpoints.
type Tracker interface {
	Heartbeat(ctx context.Context, orgID, agentID int64) error
	MarkOffline(ctx context.Context, orgID, agentID int64) error
	IsOnline(ctx context.Context, orgID, agentID int64) (bool, error)
}

// DefaultTTL is the liveness window when none is configured.
const DefaultTTL = 30 * time.Second

// Key builds the storage key for one agent's marker.
func Key(orgID, agentID int64) string {
	return fmt.Sprintf("presence:%d:agent:%d", orgID, agentID)
}
