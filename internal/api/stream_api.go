package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridpulse/dsmrflow/internal/database"
	"github.com/gridpulse/dsmrflow/internal/dsmr"
	"github.com/gridpulse/dsmrflow/internal/models"
	"github.com/gridpulse/dsmrflow/internal/series"
)

var (
	ErrBridgeRequest = errors.New("error requesting telegram stream")
	ErrBridgeStatus  = errors.New("error status from meter bridge")
)

// StreamFetcher pulls the raw telegram stream from a meter bridge over
// HTTP, parses it, and stores the projected series and event messages.
type StreamFetcher struct {
	bridgeURL string
	repo      database.TelegramRepository
	parser    *dsmr.Parser
	logger    *logrus.Logger
}

func NewStreamFetcher(bridgeURL string, repo database.TelegramRepository, logger *logrus.Logger) *StreamFetcher {
	return &StreamFetcher{
		bridgeURL: bridgeURL,
		repo:      repo,
		parser:    dsmr.NewParser(),
		logger:    logger,
	}
}

// FetchOnce performs one fetch-parse-store round trip. A parse failure is
// returned untouched so callers can inspect the *dsmr.ParseError.
func (f *StreamFetcher) FetchOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", f.bridgeURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeRequest, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: got %d", ErrBridgeStatus, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeRequest, err)
	}

	telegrams, err := f.parser.Parse(string(raw))
	if err != nil {
		return err
	}
	if len(telegrams) == 0 {
		return nil
	}

	return f.Store(ctx, telegrams)
}

// Store writes the projections of already-parsed telegrams.
func (f *StreamFetcher) Store(ctx context.Context, telegrams []dsmr.Telegram) error {
	if err := f.repo.InsertPhaseReadings(ctx, models.QuantityVoltage, series.VoltagePoints(telegrams)); err != nil {
		return fmt.Errorf("failed to insert voltage readings: %v", err)
	}
	if err := f.repo.InsertPhaseReadings(ctx, models.QuantityCurrent, series.CurrentPoints(telegrams)); err != nil {
		return fmt.Errorf("failed to insert current readings: %v", err)
	}

	low, high := series.EventMessages(telegrams)
	if err := f.repo.InsertEventMessages(ctx, append(low, high...)); err != nil {
		return fmt.Errorf("failed to insert event messages: %v", err)
	}

	f.logger.WithFields(logrus.Fields{
		"telegrams":      len(telegrams),
		"event_messages": len(low) + len(high),
	}).Info("Stored telegram batch")

	return nil
}
