package transit

import (
	"fmt"
	"sort"
	"time"
)

// Mode is the means of transport used for a trip.
type Mode uint8

const (
	ModeOther Mode = iota
	ModeBus
	ModeMetro
	ModeTram
	ModeTrain
	ModeFerry
)

func (m Mode) String() string {
	switch m {
	case ModeOther:
		return "other"
	case ModeBus:
		return "bus"
	case ModeMetro:
		return "metro"
	case ModeTram:
		return "tram"
	case ModeTrain:
		return "train"
	case ModeFerry:
		return "ferry"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// TicketKind tells which product paid for a trip.
type TicketKind uint8

const (
	TicketUnknown TicketKind = iota
	TicketValue
	TicketSeason
)

func (k TicketKind) String() string {
	switch k {
	case TicketValue:
		return "value"
	case TicketSeason:
		return "season"
	default:
		return "unknown"
	}
}

// Identity is the result of a cheap "what is this card" lookup.
// Name is empty when no operator recognised the card.
type Identity struct {
	Name         string
	SerialNumber string

	CardType  string
	TagSerial string
}

// Known reports whether an operator recognised the card.
func (i Identity) Known() bool { return i.Name != "" }

func (i Identity) String() string {
	switch {
	case !i.Known():
		return fmt.Sprintf("Unknown card (%s - %s)", i.CardType, i.TagSerial)
	case i.SerialNumber != "":
		return fmt.Sprintf("%s: %s", i.Name, i.SerialNumber)
	default:
		return i.Name
	}
}

// Station is a stop reported by operators that log boarding locations.
type Station struct {
	Name      string
	ShortName string
	Latitude  float64
	Longitude float64
}

// Trip is one entry of the card's use log.
type Trip struct {
	Timestamp  int64 `fmt:"unix"`
	ExpiresAt  int64 `fmt:"unix"`
	Fare       int64
	Balance    int64
	Passengers int
	Mode       Mode
	Ticket     TicketKind

	Agency       string
	Route        string
	StartStation *Station
	EndStation   *Station
}

// Time returns the trip timestamp in UTC.
func (t Trip) Time() time.Time { return time.Unix(t.Timestamp, 0).UTC() }

// ValidFor returns how long the ticket used for this trip stays valid,
// or zero when the operator does not record an expiry.
func (t Trip) ValidFor() time.Duration {
	if t.ExpiresAt <= t.Timestamp {
		return 0
	}
	return time.Duration(t.ExpiresAt-t.Timestamp) * time.Second
}

// Refill is a top-up of the stored value.
type Refill struct {
	Timestamp int64 `fmt:"unix"`
	Amount    int64
	Agency    string
}

// Time returns the refill timestamp in UTC.
func (r Refill) Time() time.Time { return time.Unix(r.Timestamp, 0).UTC() }

// SeasonPass is the state of a period ticket slot.
//
// HasData is false when the slot was never initialised; the interval fields
// then hold whatever the zero day decodes to and must not be displayed.
type SeasonPass struct {
	HasData bool
	// Active is true when the current interval had not ended at decode time.
	Active bool

	Start     int64 `fmt:"unix"`
	End       int64 `fmt:"unix"`
	PrevStart int64 `fmt:"unix"`
	PrevEnd   int64 `fmt:"unix"`

	PurchasedAt   int64 `fmt:"unix"`
	PurchasePrice int64
	LastUsedAt    int64 `fmt:"unix"`
}

// ValueTicket is the state of the ticket bought from the stored value.
//
// Unknown1..3 hold fields whose meaning has not been established. They are
// kept as read so that records round-trip bit for bit.
type ValueTicket struct {
	PurchasedAt    int64 `fmt:"unix"`
	ExpiresAt      int64 `fmt:"unix"`
	LastTransferAt int64 `fmt:"unix"`
	LastSignAt     int64 `fmt:"unix"`
	Price          int64
	DiscountGroup  int64
	Passengers     int64

	Unknown1 int64
	Unknown2 int64
	Unknown3 int64
}

// Data is the fully decoded content of a transit card.
type Data struct {
	Operator     string
	SerialNumber string
	Balance      int64

	SeasonPasses []SeasonPass
	ValueTickets []ValueTicket
	Trips        []Trip
	Refills      []Refill
}

// HasActiveSeasonPass reports whether any season pass was active at decode time.
func (d *Data) HasActiveSeasonPass() bool {
	for _, p := range d.SeasonPasses {
		if p.HasData && p.Active {
			return true
		}
	}
	return false
}

// SortTrips orders trips by ascending timestamp. Trips sharing a timestamp
// keep their original order.
func SortTrips(trips []Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].Timestamp < trips[j].Timestamp
	})
}
