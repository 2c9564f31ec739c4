package iso7816

// A Transaction is one Command APDU and the Response APDU it produced.
//
// A Trace is the chronological list of transactions behind one logical
// command. Continuations add entries: GET RESPONSE after 61XX, a resend
// after 6CXX, and ADDITIONAL FRAME after 91AF. IsSuccess judges the final
// entry; Data reassembles the payload split across frames.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess reports whether the response status is a success.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions.
type Trace []Transaction

// Last returns the final transaction of the trace, or nil if it is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the final transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Data concatenates the response payloads of every frame in order.
func (t Trace) Data() []byte {
	var out []byte
	for _, tx := range t {
		if tx.Response != nil {
			out = append(out, tx.Response.Data...)
		}
	}
	return out
}

// Err returns a *StatusError describing the final transaction, or nil when
// the trace succeeded.
func (t Trace) Err() error {
	if t.IsSuccess() {
		return nil
	}
	last := t.Last()
	if last == nil || last.Response == nil {
		return &StatusError{Status: SW_ERR_UNKNOWN}
	}
	return &StatusError{Instruction: last.Command.Instruction, Status: last.Response.Status}
}
