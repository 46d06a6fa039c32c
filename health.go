package writectrl

// Criticality represents how a controller's current admission state affects
// the storage engine's overall readiness.
type Criticality int

const (
	// CriticalityNone means writes are flowing unimpeded.
	CriticalityNone Criticality = iota
	// CriticalityDegraded means writes are being paced but still admitted.
	CriticalityDegraded
	// CriticalityCritical means writes are being refused outright.
	CriticalityCritical
)

// String returns the criticality level as a human-readable string.
func (c Criticality) String() string {
	switch c {
	case CriticalityDegraded:
		return "degraded"
	case CriticalityCritical:
		return "critical"
	default:
		return "none"
	}
}

// Status reports a Controller's current admission state, suitable for
// exposing on a health or readiness endpoint.
type Status struct {
	Name              string      `json:"name"`
	State             string      `json:"state"`
	Criticality       Criticality `json:"criticality"`
	Healthy           bool        `json:"healthy"`
	StopVoteCount     int         `json:"stop_vote_count"`
	DelayVoteCount    int         `json:"delay_vote_count"`
	DelayRateBytesSec uint64      `json:"delay_rate_bytes_per_sec,omitempty"`
}

// Status derives the Controller's current health from its outstanding
// votes. A stopped controller is Critical and unhealthy; a merely delayed
// one is Degraded but still considered healthy, since it is still making
// progress.
func (c *Controller) Status() Status {
	status := Status{
		Name:    c.name,
		Healthy: true,
		State:   "normal",
	}

	if c.IsStopped() {
		status.Healthy = false
		status.Criticality = CriticalityCritical
		status.State = "stopped"
		status.StopVoteCount = int(c.stopVoteCount.Load())
		return status
	}

	status.StopVoteCount = int(c.stopVoteCount.Load())

	if rate, delayed := c.CurrentDelayRate(); delayed {
		status.Criticality = CriticalityDegraded
		status.State = "delayed"
		status.DelayRateBytesSec = rate
	}

	c.delayMu.Lock()
	status.DelayVoteCount = int(c.delayVoteCount)
	c.delayMu.Unlock()

	return status
}
