//go:build integration
// +build integration

package integration_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/dsmrflow/internal/api"
	"github.com/gridpulse/dsmrflow/internal/database"
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
7.1.2 (231.2*V)
7.1.3 (229.9*V)
7.2.1 (1.5*A)
1.2.0 (END)
`

func setupTestDB(t *testing.T) database.TelegramRepository {
	// Get database connection details from environment variables
	dbHost := getEnvOrDefault("DB_HOST", "db")
	dbPort := getEnvOrDefault("DB_PORT", "5432")
	dbUser := getEnvOrDefault("DB_USER", "dsmrflow")
	dbPass := getEnvOrDefault("DB_PASSWORD", "dsmrflow")
	dbName := getEnvOrDefault("DB_NAME", "dsmrflow")

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPass, dbName,
	)

	repo, err := database.NewPostgresRepo(connStr)
	require.NoError(t, err)

	// Clean up any existing test data
	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("TRUNCATE TABLE phase_readings")
	require.NoError(t, err)
	_, err = db.Exec("TRUNCATE TABLE event_messages")
	require.NoError(t, err)

	return repo
}

// Helper function to get environment variables with defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func TestIngestAndQuery(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleStream)
	}))
	defer bridge.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fetcher := api.NewStreamFetcher(bridge.URL, repo, logger)
	require.NoError(t, fetcher.FetchOnce(context.Background()))

	// The sample telegram is stamped 2023-01-05 08:20:30 UTC.
	start := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	points, err := repo.QuerySeries(context.Background(), models.QuantityVoltage, 1, start, end, "1h", "AVG")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 230.1, points[0].Value, 1e-9)

	points, err = repo.QuerySeries(context.Background(), models.QuantityCurrent, 1, start, end, "1m", "MAX")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 1.5, points[0].Value, 1e-9)
}

func TestQuerySeriesRejectsBadArgs(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	_, err := repo.QuerySeries(context.Background(), "gas", 1, time.Now().Add(-time.Hour), time.Now(), "1h", "AVG")
	assert.Error(t, err)
}
