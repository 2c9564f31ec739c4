package card

import (
	"fmt"
	"strings"

	"github.com/gregLibert/transit-card/pkg/tlv"
)

// Describe generates a report of the card layout and raw payloads.
func (c *Card) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== CARD DUMP ===\n")
	sb.WriteString(fmt.Sprintf("    + Type:    %s\n", c.typ))
	sb.WriteString(fmt.Sprintf("    + Tag ID:  %s\n", c.Serial()))
	if !c.scannedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    + Scanned: %s\n", c.scannedAt.UTC().Format("2006-01-02 15:04:05 MST")))
	}

	for _, app := range c.applications {
		sb.WriteString(fmt.Sprintf("[App %06X] %d file(s)\n", app.id, len(app.files)))

		for _, f := range app.files {
			prefix := fmt.Sprintf("File[%02X]", f.id)
			if f.kind == KindStandard {
				sb.WriteString(fmt.Sprintf("    - %s %s (%d bytes): %X\n", prefix, f.kind, len(f.data), f.data))
				if len(f.data) > 0 {
					sb.WriteString(fmt.Sprintf("      ASCII: %q\n", tlv.MakeSafeASCII(f.data)))
				}
				continue
			}

			sb.WriteString(fmt.Sprintf("    - %s %s (%d records)\n", prefix, f.kind, len(f.records)))
			for i, r := range f.records {
				sb.WriteString(fmt.Sprintf("      #%d: %X\n", i+1, r))
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
