package transit

import (
	"fmt"
	"strings"

	"github.com/gregLibert/transit-card/pkg/tlv"
)

// Describe generates a plain report of the decoded data. Amounts are printed
// in minor units and timestamps in UTC; localised formatting is left to
// presentation code.
func (d *Data) Describe() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== %s TRANSIT DATA ===", strings.ToUpper(d.Operator)))

	tlv.WriteStructFields(&sb, "Card", struct {
		SerialNumber string
		Balance      int64
	}{d.SerialNumber, d.Balance})

	for i, p := range d.SeasonPasses {
		prefix := fmt.Sprintf("SeasonPass[%d]", i+1)
		if !p.HasData {
			sb.WriteString(fmt.Sprintf("\n    - %s: no data", prefix))
			continue
		}
		tlv.WriteStructFields(&sb, prefix, p)
	}

	for i, v := range d.ValueTickets {
		tlv.WriteStructFields(&sb, fmt.Sprintf("ValueTicket[%d]", i+1), v)
	}

	for i, r := range d.Refills {
		tlv.WriteStructFields(&sb, fmt.Sprintf("Refill[%d]", i+1), r)
	}

	for i, t := range d.Trips {
		tlv.WriteStructFields(&sb, fmt.Sprintf("Trip[%d]", i+1), t)
	}

	return sb.String()
}
