package pricing

import (
	"errors"
	"math"

	"github.com/Lyham67/Tombobach/internal/models"
)

// ErrInvalidCount is returned for ticket counts below one.
var ErrInvalidCount = errors.New("ticket count must be at least 1")

// breakpoint anchors a published total at an exact ticket count.
type breakpoint struct {
	tickets int
	total   models.Cents
}

// The published schedule: exact totals at the advertised bundle sizes,
// totals interpolated linearly in between. Ordered, strictly increasing
// in both fields.
var breakpoints = []breakpoint{
	{1, 200},
	{2, 370},
	{3, 500},
	{5, 800},
	{10, 1500},
}

// Past the largest bundle the per-ticket price decays from the bundle
// rate by a fixed decrement, never below the floor.
const (
	bulkUnit      models.Cents = 150
	bulkDecrement models.Cents = 2
	unitFloor     models.Cents = 100
)

// Quote is the price for one requested ticket count.
type Quote struct {
	Total models.Cents `json:"total"`
	Unit  models.Cents `json:"unitPrice"`
}

// Compute maps a ticket count to its total and per-ticket price.
// Totals are non-decreasing and unit prices non-increasing in the
// ticket count; the unit price never drops below the floor.
func Compute(tickets int) (Quote, error) {
	if tickets < 1 {
		return Quote{}, ErrInvalidCount
	}

	last := breakpoints[len(breakpoints)-1]
	if tickets >= last.tickets {
		unit := bulkUnit - bulkDecrement*models.Cents(tickets-last.tickets)
		if unit < unitFloor {
			unit = unitFloor
		}
		return Quote{Total: unit * models.Cents(tickets), Unit: unit}, nil
	}

	lower, upper := breakpoints[0], breakpoints[1]
	for i := 0; i < len(breakpoints)-1; i++ {
		if tickets >= breakpoints[i].tickets && tickets <= breakpoints[i+1].tickets {
			lower, upper = breakpoints[i], breakpoints[i+1]
			break
		}
	}

	span := models.Cents(upper.tickets - lower.tickets)
	total := lower.total + models.Cents(tickets-lower.tickets)*(upper.total-lower.total)/span
	return Quote{Total: total, Unit: roundedUnit(total, tickets)}, nil
}

// roundedUnit is total/tickets rounded to the nearest cent.
func roundedUnit(total models.Cents, tickets int) models.Cents {
	return models.Cents(math.Round(float64(total) / float64(tickets)))
}
