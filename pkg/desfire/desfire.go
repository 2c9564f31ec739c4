// Package desfire reads MIFARE DESFire cards into card.Card values using
// native commands wrapped in ISO 7816 APDUs.
//
// Only unauthenticated reads are performed. Files protected by a key are
// skipped, which is enough for transit formats that keep their public data
// in free-read files.
package desfire

import (
	"errors"
	"fmt"
	"time"

	"github.com/gregLibert/transit-card/pkg/card"
	"github.com/gregLibert/transit-card/pkg/iso7816"
	"github.com/sirupsen/logrus"
)

// Reader drives one DESFire card.
type Reader struct {
	client *iso7816.Client
	log    logrus.FieldLogger

	// Now stamps the scan time of cards returned by ReadCard.
	Now func() time.Time
}

// NewReader returns a Reader talking through t. A nil logger uses the logrus
// standard logger.
func NewReader(t iso7816.Transmitter, log logrus.FieldLogger) *Reader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	client := iso7816.NewClient(t)
	client.Log = log
	return &Reader{client: client, log: log, Now: time.Now}
}

// UID returns the tag identifier reported by the PC/SC reader.
func (r *Reader) UID() ([]byte, error) {
	cmd := iso7816.NewCommandAPDU(iso7816.ClassPCSC, iso7816.INS_GET_DATA, 0x00, 0x00, nil, iso7816.MaxShortLe)
	uid, err := r.client.Exchange(cmd)
	if err != nil {
		return nil, fmt.Errorf("reading UID: %w", err)
	}
	return uid, nil
}

// ApplicationIDs lists the applications on the card.
func (r *Reader) ApplicationIDs() ([]uint32, error) {
	data, err := r.client.Exchange(iso7816.NewDESFireCommand(iso7816.INS_DESFIRE_GET_APPLICATION_IDS))
	if err != nil {
		return nil, err
	}
	if len(data)%3 != 0 {
		return nil, fmt.Errorf("application list of %d bytes is not a multiple of 3", len(data))
	}

	ids := make([]uint32, 0, len(data)/3)
	for i := 0; i < len(data); i += 3 {
		ids = append(ids, uint24(data[i:i+3]))
	}
	return ids, nil
}

// SelectApplication makes id the current application. Zero selects the card
// level.
func (r *Reader) SelectApplication(id uint32) error {
	aid := make([]byte, 3)
	putUint24(aid, id)
	_, err := r.client.Exchange(iso7816.NewDESFireCommand(iso7816.INS_DESFIRE_SELECT_APPLICATION, aid...))
	return err
}

// FileIDs lists the files of the selected application.
func (r *Reader) FileIDs() ([]byte, error) {
	return r.client.Exchange(iso7816.NewDESFireCommand(iso7816.INS_DESFIRE_GET_FILE_IDS))
}

// FileSettings returns the settings of a file in the selected application.
func (r *Reader) FileSettings(id byte) (FileSettings, error) {
	data, err := r.client.Exchange(iso7816.NewDESFireCommand(iso7816.INS_DESFIRE_GET_FILE_SETTINGS, id))
	if err != nil {
		return FileSettings{}, err
	}
	return ParseFileSettings(data)
}

// ReadData reads a whole standard or backup file.
func (r *Reader) ReadData(id byte) ([]byte, error) {
	// offset 0, length 0: the whole file
	params := []byte{id, 0, 0, 0, 0, 0, 0}
	return r.client.Exchange(iso7816.NewDESFireCommand(iso7816.INS_DESFIRE_READ_DATA, params...))
}

// ReadRecords reads every record of a record file and splits them by
// recordSize.
func (r *Reader) ReadRecords(id byte, recordSize int) ([][]byte, error) {
	if recordSize <= 0 {
		return nil, fmt.Errorf("invalid record size %d", recordSize)
	}

	params := []byte{id, 0, 0, 0, 0, 0, 0}
	data, err := r.client.Exchange(iso7816.NewDESFireCommand(iso7816.INS_DESFIRE_READ_RECORDS, params...))
	if err != nil {
		return nil, err
	}
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("record data of %d bytes is not a multiple of %d", len(data), recordSize)
	}

	records := make([][]byte, 0, len(data)/recordSize)
	for i := 0; i < len(data); i += recordSize {
		records = append(records, data[i:i+recordSize])
	}
	return records, nil
}

// Value reads a value file. The four little-endian bytes are returned as sent
// by the card.
func (r *Reader) Value(id byte) ([]byte, error) {
	data, err := r.client.Exchange(iso7816.NewDESFireCommand(iso7816.INS_DESFIRE_GET_VALUE, id))
	if err != nil {
		return nil, err
	}
	if len(data) != 4 {
		return nil, fmt.Errorf("value of %d bytes, want 4", len(data))
	}
	return data, nil
}

// ReadCard reads every application and every freely readable file.
//
// Files refused for lack of authentication are skipped with a warning. Any
// other failure aborts the read.
func (r *Reader) ReadCard() (*card.Card, error) {
	uid, err := r.UID()
	if err != nil {
		return nil, err
	}

	appIDs, err := r.ApplicationIDs()
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	r.log.WithField("count", len(appIDs)).Debug("applications found")

	apps := make([]*card.Application, 0, len(appIDs))
	for _, id := range appIDs {
		app, err := r.readApplication(id)
		if err != nil {
			return nil, fmt.Errorf("application %06X: %w", id, err)
		}
		apps = append(apps, app)
	}

	return card.New(card.TypeDESFire, uid, r.now(), apps...)
}

func (r *Reader) readApplication(id uint32) (*card.Application, error) {
	if err := r.SelectApplication(id); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	fileIDs, err := r.FileIDs()
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	log := r.log.WithField("app", fmt.Sprintf("%06X", id))
	log.WithField("count", len(fileIDs)).Debug("files found")

	files := make([]*card.File, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		f, err := r.readFile(fileID)
		if err != nil {
			fileLog := log.WithField("file", fmt.Sprintf("%02X", fileID))

			var swErr *iso7816.StatusError
			switch {
			case errors.As(err, &swErr) && swErr.IsAccessDenied():
				fileLog.WithField("status", swErr.Status.Verbose()).
					Warn("file not readable without authentication, skipping")
				continue
			case errors.Is(err, ErrUnsupportedFile):
				fileLog.WithError(err).Warn("skipping file")
				continue
			}
			return nil, fmt.Errorf("file %02X: %w", fileID, err)
		}
		files = append(files, f)
	}

	return card.NewApplication(id, files...)
}

func (r *Reader) readFile(id byte) (*card.File, error) {
	settings, err := r.FileSettings(id)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	switch {
	case settings.Type.IsRecord():
		if settings.CurrentRecords == 0 {
			// Reading an empty record file fails with a boundary error.
			return card.NewRecordFile(id, nil), nil
		}
		records, err := r.ReadRecords(id, int(settings.RecordSize))
		if err != nil {
			return nil, err
		}
		return card.NewRecordFile(id, records), nil

	case settings.Type == FileValue:
		value, err := r.Value(id)
		if err != nil {
			return nil, err
		}
		return card.NewStandardFile(id, value), nil

	default:
		data, err := r.ReadData(id)
		if err != nil {
			return nil, err
		}
		return card.NewStandardFile(id, data), nil
	}
}

func (r *Reader) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
