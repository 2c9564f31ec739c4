package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/ebfe/scard"
	"github.com/gregLibert/transit-card/pkg/card"
	"github.com/gregLibert/transit-card/pkg/desfire"
	"github.com/gregLibert/transit-card/pkg/transit"
	"github.com/gregLibert/transit-card/pkg/transit/hsl"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := LoadConfig()
	logger := newLogger(cfg)

	// --- 1. Acquire the card, from a reader or a saved dump ---
	c, err := acquireCard(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("no card to decode")
	}
	fmt.Println(c.Describe())

	// --- 2. Identify and decode ---
	resolver := transit.NewResolver(logger, hsl.New())

	fmt.Printf("\n>> Identity: %s\n", resolver.Identify(c))

	data, err := resolver.Decode(c)
	if errors.Is(err, transit.ErrUnknownCard) {
		fmt.Println(">> Card not recognised by any operator")
		return
	}
	if err != nil {
		logger.WithError(err).Fatal("decoding failed")
	}
	fmt.Println()
	fmt.Println(data.Describe())

	// --- 3. Persist the decoded record ---
	if cfg.RecordOut != "" {
		if err := writeRecord(resolver, data, cfg.RecordOut); err != nil {
			logger.WithError(err).Fatal("writing record failed")
		}
		logger.WithField("path", cfg.RecordOut).Info("record written")
	}
}

// acquireCard loads cfg.DumpIn when set, otherwise reads the card on the
// configured reader and optionally saves its dump.
func acquireCard(cfg Config, logger logrus.FieldLogger) (*card.Card, error) {
	if cfg.DumpIn != "" {
		raw, err := os.ReadFile(cfg.DumpIn)
		if err != nil {
			return nil, err
		}
		return card.UnmarshalDump(raw)
	}

	ctx, sc, err := connectToCard(cfg.Reader, logger)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := ctx.Release(); err != nil {
			logger.WithError(err).Warn("failed to release context")
		}
	}()

	defer func() {
		if err := sc.Disconnect(scard.LeaveCard); err != nil {
			logger.WithError(err).Warn("failed to disconnect card")
		}
	}()

	c, err := desfire.NewReader(sc, logger).ReadCard()
	if err != nil {
		return nil, fmt.Errorf("reading card: %w", err)
	}

	if cfg.DumpOut != "" {
		raw, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(cfg.DumpOut, raw, 0o644); err != nil {
			return nil, err
		}
		logger.WithField("path", cfg.DumpOut).Info("card dump written")
	}

	return c, nil
}

// connectToCard establishes the PC/SC context and connects to the named
// reader, or to the first one when name is empty.
func connectToCard(name string, logger logrus.FieldLogger) (*scard.Context, *scard.Card, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, nil, fmt.Errorf("establishing context: %w", err)
	}

	release := func() {
		if relErr := ctx.Release(); relErr != nil {
			logger.WithError(relErr).Warn("failed to release context during error handling")
		}
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("listing readers: %w", err)
	}

	reader, err := selectReader(readers, name)
	if err != nil {
		release()
		return nil, nil, err
	}
	logger.WithField("reader", reader).Info("using reader")

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
	sc, err := ctx.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("connecting to card: %w", err)
	}

	return ctx, sc, nil
}

// selectReader returns name when it is one of readers, or the first reader
// when name is empty.
func selectReader(readers []string, name string) (string, error) {
	if len(readers) == 0 {
		return "", errors.New("no smart card reader found")
	}
	if name == "" {
		return readers[0], nil
	}
	if !slices.Contains(readers, name) {
		return "", fmt.Errorf("reader %q not found among %q", name, readers)
	}
	return name, nil
}

func writeRecord(resolver *transit.Resolver, data *transit.Data, path string) error {
	rec, err := resolver.Marshal(data)
	if err != nil {
		return err
	}
	raw, err := rec.MarshalCBOR()
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
