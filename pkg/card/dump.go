package card

import (
	"fmt"
	"strings"
	"time"

	"github.com/gregLibert/transit-card/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// DUMP FORMAT:
// A card dump is a single BER-TLV template using private-class tags:
//
//	E0 Card
//	   80 card type (1 byte)
//	   81 tag ID
//	   82 scan time, Unix milliseconds (8 bytes, big-endian; sub-millisecond precision is dropped)
//	   E1 Application (repeated, in read order)
//	      83 application ID (3 bytes)
//	      E2 File (repeated, in read order)
//	         84 file ID (1 byte)
//	         85 file kind (1 byte)
//	         86 payload (standard files)
//	         87 record (record files, repeated)
//
// Payload lengths are stored as read. Whether they suit a given operator is
// decided by that operator's decoder, not here.

const (
	tagCard        = "E0"
	tagApplication = "E1"
	tagFile        = "E2"
)

type cardDump struct {
	Type         uint8             `tlv:"80"`
	TagID        []byte            `tlv:"81"`
	ScannedAt    uint64            `tlv:"82"`
	Applications []applicationDump `tlv:"E1"`
}

type applicationDump struct {
	ID    uint32     `tlv:"83"`
	Files []fileDump `tlv:"E2"`
}

type fileDump struct {
	ID      uint8    `tlv:"84"`
	Kind    uint8    `tlv:"85"`
	Data    []byte   `tlv:"86"`
	Records [][]byte `tlv:"87"`
}

// MarshalBinary encodes the card as a BER-TLV dump.
func (c *Card) MarshalBinary() ([]byte, error) {
	children := []bertlv.TLV{
		{Tag: "80", Value: []byte{byte(c.typ)}},
		{Tag: "81", Value: cloneBytes(c.tagID)},
		{Tag: "82", Value: tlv.EncodeFixedUint(uint64(c.scannedAt.UnixMilli()), 8)},
	}

	for _, app := range c.applications {
		appTLV := bertlv.TLV{Tag: tagApplication, TLVs: []bertlv.TLV{
			{Tag: "83", Value: tlv.EncodeFixedUint(uint64(app.id), 3)},
		}}

		for _, f := range app.files {
			fileTLV := bertlv.TLV{Tag: tagFile, TLVs: []bertlv.TLV{
				{Tag: "84", Value: []byte{f.id}},
				{Tag: "85", Value: []byte{byte(f.kind)}},
			}}
			if f.kind == KindRecord {
				for _, r := range f.records {
					fileTLV.TLVs = append(fileTLV.TLVs, bertlv.TLV{Tag: "87", Value: r})
				}
			} else {
				fileTLV.TLVs = append(fileTLV.TLVs, bertlv.TLV{Tag: "86", Value: f.data})
			}
			appTLV.TLVs = append(appTLV.TLVs, fileTLV)
		}

		children = append(children, appTLV)
	}

	data, err := bertlv.Encode([]bertlv.TLV{{Tag: tagCard, TLVs: children}})
	if err != nil {
		return nil, fmt.Errorf("encode card dump: %w", err)
	}
	return data, nil
}

// UnmarshalDump decodes a dump produced by MarshalBinary.
func UnmarshalDump(data []byte) (*Card, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty card dump")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}
	if len(packets) == 0 || !strings.EqualFold(packets[0].Tag, tagCard) {
		return nil, fmt.Errorf("missing mandatory Card Template (Tag %s)", tagCard)
	}

	var dump cardDump
	if err := tlv.UnmarshalFromPackets(packets[0].TLVs, &dump); err != nil {
		return nil, fmt.Errorf("failed to map card dump: %w", err)
	}

	apps := make([]*Application, 0, len(dump.Applications))
	for _, ad := range dump.Applications {
		files := make([]*File, 0, len(ad.Files))
		for _, fd := range ad.Files {
			switch FileKind(fd.Kind) {
			case KindStandard:
				files = append(files, NewStandardFile(fd.ID, fd.Data))
			case KindRecord:
				files = append(files, NewRecordFile(fd.ID, fd.Records))
			default:
				return nil, fmt.Errorf("application %06X file %02X: unknown file kind %d", ad.ID, fd.ID, fd.Kind)
			}
		}
		app, err := NewApplication(ad.ID, files...)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	scannedAt := time.UnixMilli(int64(dump.ScannedAt)).UTC()
	return New(Type(dump.Type), dump.TagID, scannedAt, apps...)
}
