//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/csvio"
	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/kafka"
	"github.com/couchcryptid/ozonesonde-etl/internal/config"
	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
	"github.com/couchcryptid/ozonesonde-etl/internal/observability"
	"github.com/couchcryptid/ozonesonde-etl/internal/pipeline"
)

const testTopic = "test-profiles"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("ozonesonde-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type publishedProfile struct {
	Profile domain.GriddedFlightProfile
	Key     string
	Headers map[string]string
}

func readProfile(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedProfile {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from profile topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var p domain.GriddedFlightProfile
	require.NoError(t, json.Unmarshal(msg.Value, &p), "unmarshal profile message")
	return publishedProfile{Profile: p, Key: string(msg.Key), Headers: headers}
}

func sounding(launch time.Time, samples int) domain.Flight {
	p := domain.RawFlightProfile{}
	for i := range samples {
		z := float64(i) * 100
		p.AltitudeM = append(p.AltitudeM, domain.Present(z))
		p.PressureHPa = append(p.PressureHPa, domain.Present(1013.25*math.Exp(-z/7000)))
		p.TemperatureC = append(p.TemperatureC, domain.Present(20-6.5*z/1000))
		p.RelativeHumidityPct = append(p.RelativeHumidityPct, domain.Present(55))
		p.OzonePartialPressureMPa = append(p.OzonePartialPressureMPa, domain.Present(3))
	}
	return domain.Flight{LaunchTime: launch, Source: domain.SourceGAW, Profile: p}
}

func writeTables(t *testing.T, dir string, flights []domain.Flight) (string, string) {
	t.Helper()
	var validity []domain.LaunchValidity
	for _, f := range flights {
		validity = append(validity, domain.LaunchValidity{LaunchTime: f.LaunchTime, Validity: domain.AllValid()})
	}
	soundings := filepath.Join(dir, "soundings.csv")
	require.NoError(t, csvio.WriteFile(soundings, func(w io.Writer) error { return csvio.WriteSoundings(w, flights) }))
	valid := filepath.Join(dir, "validity.csv")
	require.NoError(t, csvio.WriteFile(valid, func(w io.Writer) error { return csvio.WriteValidity(w, validity) }))
	return soundings, valid
}

// TestPipelinePublishesProfiles runs the table source, the regularizer, the
// per-flight file loader and the Kafka writer end to end and reads every
// profile back from the topic.
func TestPipelinePublishesProfiles(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	dir := t.TempDir()
	base := time.Date(2011, 4, 6, 14, 0, 0, 0, time.UTC)
	flights := []domain.Flight{
		sounding(base, 300),
		sounding(base.Add(7*24*time.Hour), 250),
		sounding(base.Add(14*24*time.Hour), 1), // malformed
	}
	soundingsPath, validityPath := writeTables(t, dir, flights)

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testTopic,
		Grid:         domain.DefaultGrid(),
		Station:      domain.DefaultStation(),
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	files := csvio.NewFileLoader(filepath.Join(dir, "out"), cfg.Station, discardLogger())

	src := csvio.NewTableSource(soundingsPath, validityPath, csvio.SoundingOptions{Source: domain.SourceGAW}, discardLogger())
	reg := pipeline.NewRegularizer(cfg.Grid, discardLogger())
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(src, reg, []pipeline.BatchLoader{files, writer}, discardLogger(), metrics, pipeline.Options{Workers: 2})

	sum, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Loaded)
	assert.Equal(t, 1, sum.Malformed)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]publishedProfile, 0, len(flights))
	for len(received) < len(flights) {
		received = append(received, readProfile(ctx, t, consumer))
	}

	for i, pp := range received {
		want := flights[i].LaunchTime
		assert.Equal(t, want.Format(time.RFC3339), pp.Key, "single partition keeps launch order")
		assert.Equal(t, pp.Key, pp.Headers["launch_time"])
		_, err := time.Parse(time.RFC3339, pp.Headers["compiled_at"])
		assert.NoError(t, err, "compiled_at should be valid RFC3339")
		assert.Equal(t, domain.DefaultGrid().Len(), pp.Profile.Len())
	}
	assert.False(t, received[0].Profile.Series(domain.Pressure).AllMissing())
	assert.True(t, received[2].Profile.Series(domain.Pressure).AllMissing(), "malformed flight is published empty")

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, len(flights))
}

// TestWriterUnreachableBroker verifies that a dead sink surfaces as a run
// error once retries are exhausted, while the corpus stays assembled.
func TestWriterUnreachableBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dir := t.TempDir()
	soundingsPath, validityPath := writeTables(t, dir, []domain.Flight{sounding(time.Date(2011, 4, 6, 14, 0, 0, 0, time.UTC), 50)})

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: testTopic}, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	src := csvio.NewTableSource(soundingsPath, validityPath, csvio.SoundingOptions{}, discardLogger())
	reg := pipeline.NewRegularizer(domain.DefaultGrid(), discardLogger())
	p := pipeline.New(src, reg, []pipeline.BatchLoader{writer}, discardLogger(), observability.NewMetricsForTesting(), pipeline.Options{MaxLoadAttempts: 2})

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, p.Corpus().Len())
}
