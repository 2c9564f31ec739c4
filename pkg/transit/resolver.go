package transit

import (
	"fmt"
	"sync"

	"github.com/gregLibert/transit-card/pkg/card"
	"github.com/gregLibert/transit-card/pkg/record"
	"github.com/sirupsen/logrus"
)

// Operator recognises and decodes the cards of one transit system.
//
// Identify and Decode are only called on cards for which Matches returned
// true. Marshal and Unmarshal convert Data produced by Decode to and from the
// operator's record layout; Unmarshal(Marshal(d)) must equal d.
type Operator interface {
	Name() string
	Matches(c *card.Card) bool
	Identify(c *card.Card) (Identity, error)
	Decode(c *card.Card) (*Data, error)
	Marshal(d *Data) (record.Record, error)
	Unmarshal(r record.Record) (*Data, error)
}

// Resolver dispatches cards to operators in registration order and caches
// identities per tag serial. It is safe for concurrent use.
type Resolver struct {
	log logrus.FieldLogger

	mu        sync.RWMutex
	operators []Operator

	identities sync.Map // tag serial -> Identity
}

// NewResolver returns a Resolver trying ops in the given order.
// A nil logger uses the logrus standard logger.
func NewResolver(log logrus.FieldLogger, ops ...Operator) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		log:       log,
		operators: append([]Operator(nil), ops...),
	}
}

// Register appends op after the operators already registered.
func (r *Resolver) Register(op Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators = append(r.operators, op)
}

// Operators returns the registered operators in priority order.
func (r *Resolver) Operators() []Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Operator(nil), r.operators...)
}

// Operator returns the first operator whose Matches accepts c.
// Later operators are not consulted.
func (r *Resolver) Operator(c *card.Card) (Operator, bool) {
	for _, op := range r.Operators() {
		if r.matches(op, c) {
			return op, true
		}
	}
	return nil, false
}

// Identify returns the identity of c without decoding it fully.
//
// Results are cached per tag serial; the first stored identity wins and later
// lookups for the same serial return it. Cards without a tag ID are never
// cached. Identify never fails: a card no operator recognises, or one whose
// operator fails to identify it, yields an unknown identity carrying only the
// card type and tag serial.
func (r *Resolver) Identify(c *card.Card) Identity {
	serial := c.Serial()
	if serial == "" {
		return r.identify(c)
	}
	if cached, ok := r.identities.Load(serial); ok {
		return cached.(Identity)
	}

	id := r.identify(c)
	actual, _ := r.identities.LoadOrStore(serial, id)
	return actual.(Identity)
}

// Forget drops the cached identity for a tag serial, typically when the scan
// it was computed from is deleted.
func (r *Resolver) Forget(tagSerial string) {
	r.identities.Delete(tagSerial)
}

func (r *Resolver) identify(c *card.Card) Identity {
	unknown := Identity{CardType: c.Type().String(), TagSerial: c.Serial()}

	op, ok := r.Operator(c)
	if !ok {
		return unknown
	}

	id, err := r.safeIdentify(op, c)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"operator":   op.Name(),
			"card_type":  unknown.CardType,
			"tag_serial": unknown.TagSerial,
			"error":      err,
		}).Warn("identity lookup failed, treating card as unknown")
		return unknown
	}

	id.CardType = unknown.CardType
	id.TagSerial = unknown.TagSerial
	return id
}

// Decode fully decodes c with the first matching operator. It returns
// ErrUnknownCard when no operator matches, and the operator's error (usually
// a *FeatureError) when decoding fails.
func (r *Resolver) Decode(c *card.Card) (*Data, error) {
	op, ok := r.Operator(c)
	if !ok {
		return nil, ErrUnknownCard
	}

	data, err := op.Decode(c)
	if err != nil {
		return nil, err
	}
	if data.Operator == "" {
		data.Operator = op.Name()
	}
	return data, nil
}

// Marshal encodes d with the record layout of the operator that produced it.
func (r *Resolver) Marshal(d *Data) (record.Record, error) {
	op, err := r.byName(d.Operator)
	if err != nil {
		return nil, err
	}
	return op.Marshal(d)
}

// Unmarshal decodes a record written by Marshal for the named operator.
func (r *Resolver) Unmarshal(operator string, rec record.Record) (*Data, error) {
	op, err := r.byName(operator)
	if err != nil {
		return nil, err
	}
	return op.Unmarshal(rec)
}

func (r *Resolver) byName(name string) (Operator, error) {
	for _, op := range r.Operators() {
		if op.Name() == name {
			return op, nil
		}
	}
	return nil, fmt.Errorf("no operator named %q", name)
}

func (r *Resolver) matches(op Operator, c *card.Card) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.log.WithFields(logrus.Fields{
				"operator":   op.Name(),
				"tag_serial": c.Serial(),
				"panic":      p,
			}).Warn("operator probe panicked, skipping")
			ok = false
		}
	}()
	return op.Matches(c)
}

func (r *Resolver) safeIdentify(op Operator, c *card.Card) (id Identity, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("identify panicked: %v", p)
		}
	}()
	return op.Identify(c)
}
