package events

// SanityChangePayload records a sanity modification.
type SanityChangePayload struct {
	Previous  int    `json:"previous_sanity"`
	Current   int    `json:"new_sanity"`
	Max       int    `json:"max_sanity"`
	Threshold int    `json:"threshold"`
	Delta     int    `json:"delta"`
	Cause     string `json:"cause"` // "DECAY", "PICKUP", "DEBUG", ...
}

// ThresholdPayload marks the sanity value crossing the lighting threshold.
type ThresholdPayload struct {
	Below     bool `json:"below"`
	Current   int  `json:"current"`
	Threshold int  `json:"threshold"`
}

// ZeroCrossingPayload accompanies depleted/restored events for both meters.
type ZeroCrossingPayload struct {
	Resource string  `json:"resource"` // "sanity" or "battery"
	Value    float64 `json:"value"`
}

// LightsChangedPayload reports the lighting state after a transition.
type LightsChangedPayload struct {
	On             bool   `json:"on"`
	OverrideActive bool   `json:"override_active"`
	Source         string `json:"source"`
}

// BatteryChangePayload reports the battery charge.
type BatteryChangePayload struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
}

// FlashlightPayload reports the equipment flags.
type FlashlightPayload struct {
	Equipped   bool `json:"equipped"`
	SwitchedOn bool `json:"switched_on"`
}

// GeneratorPayload describes a generator phase change.
type GeneratorPayload struct {
	Phase      string `json:"phase"`
	Forced     bool   `json:"forced,omitempty"`
	Repeatable bool   `json:"repeatable"`
}

// AntagonistStatePayload records a state machine transition.
type AntagonistStatePayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// CrowdFreezePayload reports a freeze or unfreeze of every registered actor.
type CrowdFreezePayload struct {
	Frozen  bool `json:"frozen"`
	Members int  `json:"members"`
}

// PickupPayload records a consumed item.
type PickupPayload struct {
	Item   string  `json:"item"`
	Amount float64 `json:"amount"`
}

// RejectedPayload explains why a request was refused.
type RejectedPayload struct {
	Component string `json:"component"`
	Request   string `json:"request"`
	Reason    string `json:"reason"`
}

// TimeTickPayload is the heartbeat emitted by the ticker.
type TimeTickPayload struct {
	TickNumber uint64  `json:"tick_number"`
	SimSeconds float64 `json:"sim_seconds"`
}
