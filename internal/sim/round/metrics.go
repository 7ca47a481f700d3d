package round

// RoundMetrics is a thread-safe read-only view of key round runtime signals.
// It is updated from the round loop goroutine and read from HTTP handlers/tests.
type RoundMetrics struct {
	Tick uint64 `json:"tick"`

	Dominions int `json:"dominions"`
	NPCs      int `json:"npcs"`
	Clients   int `json:"clients"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inbox  int `json:"inbox"`
	Join   int `json:"join"`
	Leave  int `json:"leave"`
	Attach int `json:"attach"`
}

func (r *Round) Metrics() RoundMetrics {
	if r == nil {
		return RoundMetrics{}
	}
	v := r.metrics.Load()
	if v == nil {
		return RoundMetrics{}
	}
	m, ok := v.(RoundMetrics)
	if !ok {
		return RoundMetrics{}
	}
	return m
}

func (r *Round) publishMetrics(stepMS float64) {
	npcs := 0
	for _, d := range r.dominions {
		if d.NPC {
			npcs++
		}
	}
	r.metrics.Store(RoundMetrics{
		Tick:      r.tick.Load(),
		Dominions: len(r.dominions),
		NPCs:      npcs,
		Clients:   len(r.clients),
		QueueDepths: QueueDepths{
			Inbox:  len(r.inbox),
			Join:   len(r.join),
			Leave:  len(r.leave),
			Attach: len(r.attach),
		},
		StepMS: stepMS,
	})
}
