package daemon

import (
	"github.com/janekbaraniewski/claudewatch/internal/core"
)

const APIVersion = "v1"

// Config controls the socket server lifecycle.
type Config struct {
	SocketPath string
	Verbose    bool
}

// HealthResponse is what /healthz returns.
type HealthResponse struct {
	Status        string `json:"status"`
	DaemonVersion string `json:"daemon_version,omitempty"`
	APIVersion    string `json:"api_version,omitempty"`
}

// ReadModel is the full watcher state as exposed to local clients: the most
// recent poll outcome, the last successfully fetched metrics (which survive
// transient failures), and the active poll cadence.
type ReadModel struct {
	Outcome         core.Outcome   `json:"outcome"`
	LastGood        core.MetricMap `json:"last_good,omitempty"`
	IntervalSeconds int            `json:"interval_seconds"`
}
