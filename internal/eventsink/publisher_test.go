// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package eventsink

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/presence-relay/internal/logging"
	"github.com/tomtom215/presence-relay/internal/presence"
)

func startEmbedded(t *testing.T, jetStream bool) *EmbeddedServer {
	t.Helper()
	cfg := ServerConfig{Host: "127.0.0.1", Port: -1, JetStream: jetStream}
	if jetStream {
		cfg.StoreDir = t.TempDir()
	}
	srv, err := NewEmbeddedServer(cfg)
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestEmbeddedServer_Lifecycle(t *testing.T) {
	t.Parallel()

	srv := startEmbedded(t, false)
	if !srv.IsRunning() {
		t.Error("IsRunning() = false after start")
	}
	if srv.JetStreamEnabled() {
		t.Error("JetStreamEnabled() = true for core server")
	}
	if srv.ClientURL() == "" {
		t.Error("ClientURL() is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestNATSPublisher_CoreNATS(t *testing.T) {
	t.Parallel()

	srv := startEmbedded(t, false)

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer nc.Close()
	sub, err := nc.SubscribeSync("presence.>")
	if err != nil {
		t.Fatalf("SubscribeSync: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	pub, err := NewNATSPublisher(DefaultPublisherConfig(srv.ClientURL()), logging.NewWatermillAdapter())
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	sink := New(pub, testConfig("presence"))
	defer sink.Close()

	sink.publish(newRecord(KindJoined, "conn-7", time.Now()))

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	if msg.Subject != "presence.joined" {
		t.Errorf("subject = %q, want presence.joined", msg.Subject)
	}
	var rec Record
	if err := json.Unmarshal(msg.Data, &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Kind != KindJoined || rec.ConnID != "conn-7" {
		t.Errorf("record = %+v", rec)
	}
	if got := msg.Header.Get("kind"); got != "joined" {
		t.Errorf("kind header = %q, want joined", got)
	}
}

func TestNATSPublisher_JetStream(t *testing.T) {
	t.Parallel()

	srv := startEmbedded(t, true)

	cfg := DefaultPublisherConfig(srv.ClientURL())
	cfg.JetStream = true
	cfg.TopicPrefix = "presence"
	pub, err := NewNATSPublisher(cfg, nil)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	sink := New(pub, testConfig("presence"))
	defer sink.Close()

	sink.publish(newRecord(KindJoined, "a", time.Now()))
	sink.publish(newRecord(KindLocation, "a", time.Now()))

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := js.Stream(ctx, StreamName("presence"))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.State.Msgs != 2 {
		t.Errorf("stream messages = %d, want 2", info.State.Msgs)
	}
}

func TestSink_RelayToNATS(t *testing.T) {
	t.Parallel()

	srv := startEmbedded(t, false)

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer nc.Close()
	sub, _ := nc.SubscribeSync("relaytest.>")
	_ = nc.Flush()

	cfg := DefaultPublisherConfig(srv.ClientURL())
	pub, err := NewNATSPublisher(cfg, nil)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	sink := New(pub, testConfig("relaytest"))
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sink.RunWithContext(ctx) }()

	relay := presence.NewRelay(presence.Options{Observer: sink})
	_ = relay.Join(&nopSubscriber{id: "x"})
	_ = relay.UpdateLocation("x", presence.Location{Latitude: 48.85, Longitude: 2.35})
	relay.Leave("x")

	for _, want := range []string{"relaytest.joined", "relaytest.location", "relaytest.left"} {
		msg, err := sub.NextMsg(2 * time.Second)
		if err != nil {
			t.Fatalf("NextMsg waiting for %s: %v", want, err)
		}
		if msg.Subject != want {
			t.Errorf("subject = %q, want %q", msg.Subject, want)
		}
	}
}

func TestStreamName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		want   string
	}{
		{"presence", "PRESENCE"},
		{"app.presence", "APP_PRESENCE"},
		{"", "PRESENCE"},
	}
	for _, tt := range tests {
		if got := StreamName(tt.prefix); got != tt.want {
			t.Errorf("StreamName(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
