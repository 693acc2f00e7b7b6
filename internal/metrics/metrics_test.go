// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordJoinAndLeave(t *testing.T) {
	joins := testutil.ToFloat64(PresenceJoins)
	dups := testutil.ToFloat64(PresenceDuplicateRegistrations)
	leaves := testutil.ToFloat64(PresenceLeaves)

	RecordJoin(3, false)
	if got := testutil.ToFloat64(PresenceConnections); got != 3 {
		t.Errorf("PresenceConnections = %v, want 3", got)
	}

	RecordJoin(3, true)
	RecordLeave(2)

	if got := testutil.ToFloat64(PresenceJoins) - joins; got != 2 {
		t.Errorf("PresenceJoins delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(PresenceDuplicateRegistrations) - dups; got != 1 {
		t.Errorf("PresenceDuplicateRegistrations delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(PresenceLeaves) - leaves; got != 1 {
		t.Errorf("PresenceLeaves delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(PresenceConnections); got != 2 {
		t.Errorf("PresenceConnections = %v, want 2", got)
	}
}

func TestRecordLocationUpdate(t *testing.T) {
	accepted := testutil.ToFloat64(LocationUpdatesAccepted)
	rejected := testutil.ToFloat64(LocationUpdatesRejected.WithLabelValues(ReasonValidation))
	limited := testutil.ToFloat64(LocationUpdatesRejected.WithLabelValues(ReasonRateLimited))

	RecordLocationUpdate("")
	RecordLocationUpdate(ReasonValidation)
	RecordLocationUpdate(ReasonValidation)
	RecordLocationUpdate(ReasonRateLimited)

	if got := testutil.ToFloat64(LocationUpdatesAccepted) - accepted; got != 1 {
		t.Errorf("accepted delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(LocationUpdatesRejected.WithLabelValues(ReasonValidation)) - rejected; got != 2 {
		t.Errorf("validation delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(LocationUpdatesRejected.WithLabelValues(ReasonRateLimited)) - limited; got != 1 {
		t.Errorf("rate_limited delta = %v, want 1", got)
	}
}

func TestRecordDelivery(t *testing.T) {
	delivered := testutil.ToFloat64(EventsDelivered.WithLabelValues("total-users"))
	dropped := testutil.ToFloat64(EventsDropped.WithLabelValues("total-users"))

	RecordDelivery("total-users", true)
	RecordDelivery("total-users", false)

	if got := testutil.ToFloat64(EventsDelivered.WithLabelValues("total-users")) - delivered; got != 1 {
		t.Errorf("delivered delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(EventsDropped.WithLabelValues("total-users")) - dropped; got != 1 {
		t.Errorf("dropped delta = %v, want 1", got)
	}
}

func TestTrackTransportConnection(t *testing.T) {
	before := testutil.ToFloat64(TransportConnections.WithLabelValues(TransportLongPoll))

	TrackTransportConnection(TransportLongPoll, true)
	TrackTransportConnection(TransportLongPoll, true)
	TrackTransportConnection(TransportLongPoll, false)

	if got := testutil.ToFloat64(TransportConnections.WithLabelValues(TransportLongPoll)) - before; got != 1 {
		t.Errorf("longpoll gauge delta = %v, want 1", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200"))

	RecordAPIRequest("GET", "/health", "200", 5*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200")) - before; got != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", got)
	}
	if testutil.CollectAndCount(APIRequestDuration) == 0 {
		t.Error("expected api_request_duration_seconds samples")
	}
}

func TestTrackActiveRequest_Concurrent(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests = %v, want %v", got, before)
	}
}

func TestRecordSinkEvent(t *testing.T) {
	before := testutil.ToFloat64(SinkEventsPublished.WithLabelValues("presence.joined", "published"))

	RecordSinkEvent("presence.joined", "published")

	if got := testutil.ToFloat64(SinkEventsPublished.WithLabelValues("presence.joined", "published")) - before; got != 1 {
		t.Errorf("sink delta = %v, want 1", got)
	}
}

func TestRecordRateLimitHit(t *testing.T) {
	before := testutil.ToFloat64(APIRateLimitHits.WithLabelValues("/metrics-test"))

	RecordRateLimitHit("/metrics-test")
	RecordRateLimitHit("/metrics-test")

	if got := testutil.ToFloat64(APIRateLimitHits.WithLabelValues("/metrics-test")) - before; got != 2 {
		t.Errorf("rate limit delta = %v, want 2", got)
	}
}
