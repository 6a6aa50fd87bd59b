package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/dsmrflow/internal/dsmr"
	"github.com/gridpulse/dsmrflow/internal/models"
)

const sampleStream = `#v10
1.1.0 (START)
2.1.0 (23-Jan-05 10:20:30S)
3.1.1 (H)
3.2.1 (4142)
3.3.1 (23-Jan-05 10:20:30S)
4.1.0 (E)
7.1.1 (230.1*V)
7.2.1 (1.5*A)
1.2.0 (END)
`

// fakeRepo records inserts in memory.
type fakeRepo struct {
	readings map[string][]models.PhaseVector
	messages []models.EventMessage
	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{readings: make(map[string][]models.PhaseVector)}
}

func (r *fakeRepo) InsertPhaseReadings(ctx context.Context, quantity string, points []models.PhaseVector) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.readings[quantity] = append(r.readings[quantity], points...)
	return nil
}

func (r *fakeRepo) InsertEventMessages(ctx context.Context, messages []models.EventMessage) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.messages = append(r.messages, messages...)
	return nil
}

func (r *fakeRepo) QuerySeries(ctx context.Context, quantity string, phase int, start, end time.Time, window, aggregation string) ([]models.SeriesPoint, error) {
	return nil, nil
}

func (r *fakeRepo) Close() error { return nil }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestFetchOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleStream)
	}))
	defer srv.Close()

	repo := newFakeRepo()
	fetcher := NewStreamFetcher(srv.URL, repo, quietLogger())

	err := fetcher.FetchOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, repo.readings[models.QuantityVoltage], 1)
	assert.Equal(t, 230.1, repo.readings[models.QuantityVoltage][0].Phase1)
	require.Len(t, repo.readings[models.QuantityCurrent], 1)
	assert.Equal(t, 1.5, repo.readings[models.QuantityCurrent][0].Phase1)

	require.Len(t, repo.messages, 1)
	assert.Equal(t, "AB", repo.messages[0].Message)
	assert.Equal(t, "high", repo.messages[0].Severity)
}

func TestFetchOnceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	fetcher := NewStreamFetcher(srv.URL, newFakeRepo(), quietLogger())
	err := fetcher.FetchOnce(context.Background())
	assert.ErrorIs(t, err, ErrBridgeStatus)
}

func TestFetchOnceParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "#v99\n")
	}))
	defer srv.Close()

	fetcher := NewStreamFetcher(srv.URL, newFakeRepo(), quietLogger())
	err := fetcher.FetchOnce(context.Background())
	require.Error(t, err)

	var perr *dsmr.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, dsmr.UnknownTelegramVersion, perr.Kind)
}

func TestFetchOnceRepoFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleStream)
	}))
	defer srv.Close()

	repo := newFakeRepo()
	repo.failWith = errors.New("db down")
	fetcher := NewStreamFetcher(srv.URL, repo, quietLogger())

	err := fetcher.FetchOnce(context.Background())
	assert.Error(t, err)
}
