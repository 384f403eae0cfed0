package engine

import (
	"errors"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// Rejection reasons. Requests that fail with one of these leave state untouched.
var (
	ErrPowerFailure   = errors.New("complete power failure")
	ErrBreakerTripped = errors.New("breaker tripped")
	ErrOnCooldown     = errors.New("generator on cooldown")
	ErrActivating     = errors.New("generator already activating")
	ErrSpent          = errors.New("generator spent")
	ErrNotEquipped    = errors.New("flashlight not equipped")
	ErrBatteryEmpty   = errors.New("battery empty")
	ErrNoEffect       = errors.New("item has no effect")
)

// reject reports a refused request on the bus and in the log.
func reject(bus *events.Bus, log *logger.Logger, component, request string, err error) {
	log.Warn("request rejected", "request", request, "reason", err.Error())
	bus.Publish(events.GameEvent{
		Type:    events.EventTypeRequestRejected,
		ActorID: component,
		Payload: events.RejectedPayload{
			Component: component,
			Request:   request,
			Reason:    err.Error(),
		},
	})
}
