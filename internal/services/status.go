package services

import "github.com/example/labourmarket/internal/models"

// actor is the set of roles a caller holds on a booking.
type actor uint8

const (
	actorOwner actor = 1 << iota
	actorWorker
)

// statusTransitions lists, per current status, the reachable statuses and
// which roles may request them. Completed and cancelled are terminal.
var statusTransitions = map[models.BookingStatus]map[models.BookingStatus]actor{
	models.BookingPending: {
		models.BookingConfirmed: actorWorker,
		models.BookingCancelled: actorOwner | actorWorker,
	},
	models.BookingConfirmed: {
		models.BookingCompleted: actorOwner | actorWorker,
		models.BookingCancelled: actorOwner | actorWorker,
	},
}

func canTransition(from, to models.BookingStatus, roles actor) bool {
	allowed, ok := statusTransitions[from][to]
	return ok && allowed&roles != 0
}
