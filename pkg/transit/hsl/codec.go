package hsl

import (
	"fmt"

	"github.com/gregLibert/transit-card/pkg/record"
	"github.com/gregLibert/transit-card/pkg/transit"
)

// RECORD LAYOUT:
// Fields are written in this order and read back in the same order.
//
//	serial (string)
//	balance
//	value ticket: unknown1, unknown2, unknown3, last sign, price,
//	              discount group, purchase, expiry, passengers, last transfer
//	trip count, then per trip: ticket flag, timestamp, expiry, fare,
//	                           passengers, balance
//	refill count, then per refill: timestamp, amount
//	season pass: has data, active, start, end, previous start,
//	             previous end, purchase, price, last use
//
// Mode and agency descriptors are constant for HSL and are not stored.
const (
	tripFields   = 6
	refillFields = 2
)

// Marshal implements transit.Operator.
func (o *Operator) Marshal(d *transit.Data) (record.Record, error) {
	if len(d.ValueTickets) != 1 || len(d.SeasonPasses) != 1 {
		return nil, fmt.Errorf("%s record needs exactly one value ticket and one season pass, got %d and %d",
			Name, len(d.ValueTickets), len(d.SeasonPasses))
	}

	var w record.Writer
	w.String(d.SerialNumber)
	w.Int(d.Balance)

	v := d.ValueTickets[0]
	w.Int(v.Unknown1)
	w.Int(v.Unknown2)
	w.Int(v.Unknown3)
	w.Int(v.LastSignAt)
	w.Int(v.Price)
	w.Int(v.DiscountGroup)
	w.Int(v.PurchasedAt)
	w.Int(v.ExpiresAt)
	w.Int(v.Passengers)
	w.Int(v.LastTransferAt)

	w.Int(int64(len(d.Trips)))
	for _, t := range d.Trips {
		w.Bool(t.Ticket == transit.TicketValue)
		w.Int(t.Timestamp)
		w.Int(t.ExpiresAt)
		w.Int(t.Fare)
		w.Int(int64(t.Passengers))
		w.Int(t.Balance)
	}

	w.Int(int64(len(d.Refills)))
	for _, r := range d.Refills {
		w.Int(r.Timestamp)
		w.Int(r.Amount)
	}

	p := d.SeasonPasses[0]
	w.Bool(p.HasData)
	w.Bool(p.Active)
	w.Int(p.Start)
	w.Int(p.End)
	w.Int(p.PrevStart)
	w.Int(p.PrevEnd)
	w.Int(p.PurchasedAt)
	w.Int(p.PurchasePrice)
	w.Int(p.LastUsedAt)

	return w.Record(), nil
}

// Unmarshal implements transit.Operator.
func (o *Operator) Unmarshal(rec record.Record) (*transit.Data, error) {
	r := record.NewReader(rec)
	d := &transit.Data{Operator: Name}

	d.SerialNumber = r.String()
	d.Balance = r.Int()

	var v transit.ValueTicket
	v.Unknown1 = r.Int()
	v.Unknown2 = r.Int()
	v.Unknown3 = r.Int()
	v.LastSignAt = r.Int()
	v.Price = r.Int()
	v.DiscountGroup = r.Int()
	v.PurchasedAt = r.Int()
	v.ExpiresAt = r.Int()
	v.Passengers = r.Int()
	v.LastTransferAt = r.Int()
	d.ValueTickets = []transit.ValueTicket{v}

	if n := r.Count(tripFields); n > 0 {
		d.Trips = make([]transit.Trip, n)
		for i := range d.Trips {
			d.Trips[i] = transit.Trip{
				Ticket:     ticketKind(r.Int()),
				Timestamp:  r.Int(),
				ExpiresAt:  r.Int(),
				Fare:       r.Int(),
				Passengers: int(r.Int()),
				Balance:    r.Int(),
				Mode:       transit.ModeBus,
			}
		}
	}

	if n := r.Count(refillFields); n > 0 {
		d.Refills = make([]transit.Refill, n)
		for i := range d.Refills {
			d.Refills[i] = transit.Refill{
				Timestamp: r.Int(),
				Amount:    r.Int(),
				Agency:    Name,
			}
		}
	}

	var p transit.SeasonPass
	p.HasData = r.Bool()
	p.Active = r.Bool()
	p.Start = r.Int()
	p.End = r.Int()
	p.PrevStart = r.Int()
	p.PrevEnd = r.Int()
	p.PurchasedAt = r.Int()
	p.PurchasePrice = r.Int()
	p.LastUsedAt = r.Int()
	d.SeasonPasses = []transit.SeasonPass{p}

	if err := r.Done(); err != nil {
		return nil, fmt.Errorf("%s record: %w", Name, err)
	}
	return d, nil
}
