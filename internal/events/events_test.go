package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fyrsmithlabs/reductiond/internal/config"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	server, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})
	return server
}

func TestNew_NopWithoutURL(t *testing.T) {
	pub, err := New(config.EventsConfig{SubjectPrefix: "reductiond.events"})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), Event{Type: TypeStatsReset}))
	assert.NoError(t, pub.Close())
}

func TestNop(t *testing.T) {
	var pub Publisher = Nop{}
	for _, typ := range []Type{TypeReductionCompleted, TypeBatchCompleted, TypeStatsReset} {
		assert.NoError(t, pub.Publish(context.Background(), Event{Type: typ}))
	}
	assert.NoError(t, pub.Close())
	assert.NoError(t, pub.Close())
}

func TestNew_ConnectFailure(t *testing.T) {
	_, err := New(config.EventsConfig{NATSURL: "nats://127.0.0.1:1"}, nats.Timeout(200*time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to nats")
}

func TestNATSPublisher_Publish(t *testing.T) {
	server := startTestNATSServer(t)

	pub, err := New(config.EventsConfig{NATSURL: server.ClientURL(), SubjectPrefix: "reductiond.events"})
	require.NoError(t, err)
	defer pub.Close()

	sub, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	s, err := sub.SubscribeSync("reductiond.events.>")
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	err = pub.Publish(context.Background(), Event{
		Type:          TypeReductionCompleted,
		RequestID:     "req-1",
		Algorithm:     "semantic",
		OriginalChars: 19,
		SavedChars:    4,
		LatencyMs:     0.12,
		Digest:        "3be79472",
	})
	require.NoError(t, err)

	msg, err := s.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "reductiond.events.reduction.completed", msg.Subject)
	assert.Equal(t, "req-1", msg.Header.Get("X-Request-Id"))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, ev.ID, msg.Header.Get(nats.MsgIdHdr))
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, TypeReductionCompleted, ev.Type)
	assert.Equal(t, "semantic", ev.Algorithm)
	assert.Equal(t, 19, ev.OriginalChars)
	assert.Equal(t, 4, ev.SavedChars)
	assert.Equal(t, "3be79472", ev.Digest)
}

func TestNATSPublisher_SubjectsPerType(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	pub := NewNATSPublisher(nc, "rd")
	s, err := nc.SubscribeSync("rd.>")
	require.NoError(t, err)

	for _, typ := range []Type{TypeReductionCompleted, TypeBatchCompleted, TypeStatsReset} {
		require.NoError(t, pub.Publish(context.Background(), Event{Type: typ}))
	}

	var subjects []string
	for i := 0; i < 3; i++ {
		msg, err := s.NextMsg(2 * time.Second)
		require.NoError(t, err)
		subjects = append(subjects, msg.Subject)
	}
	assert.Equal(t, []string{
		"rd.reduction.completed",
		"rd.reduction.batch_completed",
		"rd.stats.reset",
	}, subjects)

	// Close leaves a borrowed connection open.
	require.NoError(t, pub.Close())
	assert.True(t, nc.IsConnected())
}

func TestNATSPublisher_CancelledContext(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewNATSPublisher(nc, "rd").Publish(ctx, Event{Type: TypeStatsReset})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNATSPublisher_EmptyPrefix(t *testing.T) {
	assert.Equal(t, "stats.reset", NewNATSPublisher(nil, "").Subject(TypeStatsReset))
}
