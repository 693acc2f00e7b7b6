// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package protocol

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/presence-relay/internal/metrics"
	"github.com/tomtom215/presence-relay/internal/presence"
	"github.com/tomtom215/presence-relay/internal/validation"
)

func TestDecode_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "send-location",
			raw:  `{"type":"send-location","data":{"latitude":51.5,"longitude":-0.12}}`,
			want: Inbound{Type: TypeSendLocation, Location: presence.Location{Latitude: 51.5, Longitude: -0.12}},
		},
		{
			name: "zero coordinates are valid",
			raw:  `{"type":"send-location","data":{"latitude":0,"longitude":0}}`,
			want: Inbound{Type: TypeSendLocation},
		},
		{
			name: "boundary coordinates",
			raw:  `{"type":"send-location","data":{"latitude":-90,"longitude":180}}`,
			want: Inbound{Type: TypeSendLocation, Location: presence.Location{Latitude: -90, Longitude: 180}},
		},
		{
			name: "ping",
			raw:  `{"type":"ping"}`,
			want: Inbound{Type: TypePing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantReason string
		wantCode   string
	}{
		{"not json", `hello`, metrics.ReasonMalformed, CodeMalformed},
		{"json array", `[1,2]`, metrics.ReasonMalformed, CodeMalformed},
		{"unknown type", `{"type":"teleport"}`, metrics.ReasonValidation, CodeUnknownType},
		{"missing type", `{"data":{}}`, metrics.ReasonValidation, CodeUnknownType},
		{"missing data", `{"type":"send-location"}`, metrics.ReasonValidation, CodeValidation},
		{"missing latitude", `{"type":"send-location","data":{"longitude":1}}`, metrics.ReasonValidation, CodeValidation},
		{"missing longitude", `{"type":"send-location","data":{"latitude":1}}`, metrics.ReasonValidation, CodeValidation},
		{"latitude out of range", `{"type":"send-location","data":{"latitude":91,"longitude":0}}`, metrics.ReasonValidation, CodeValidation},
		{"longitude out of range", `{"type":"send-location","data":{"latitude":0,"longitude":-180.5}}`, metrics.ReasonValidation, CodeValidation},
		{"string coordinates", `{"type":"send-location","data":{"latitude":"1","longitude":"2"}}`, metrics.ReasonValidation, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("Decode() expected error")
			}

			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("Decode() error type = %T, want *DecodeError", err)
			}
			if derr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", derr.Reason, tt.wantReason)
			}

			code, message := Classify(err)
			if code != tt.wantCode {
				t.Errorf("Classify() code = %q, want %q", code, tt.wantCode)
			}
			if message == "" {
				t.Error("Classify() message should not be empty")
			}
		})
	}
}

func TestDecode_ValidationFieldNames(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"type":"send-location","data":{"latitude":100,"longitude":0}}`))

	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *validation.RequestValidationError", err)
	}
	errs := verr.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d field errors, want 1", len(errs))
	}
	if errs[0].Field() != "latitude" || errs[0].Tag() != "latitude" {
		t.Errorf("field error = %s/%s, want latitude/latitude", errs[0].Field(), errs[0].Tag())
	}
}

func TestEncodeEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   presence.Event
		want string
	}{
		{
			name: "received-location",
			ev:   presence.ReceivedLocation("abc", presence.Location{Latitude: 1.5, Longitude: -2}),
			want: `{"type":"received-location","data":{"id":"abc","latitude":1.5,"longitude":-2}}`,
		},
		{
			name: "user-disconnected",
			ev:   presence.UserDisconnected("abc"),
			want: `{"type":"user-disconnected","data":{"id":"abc"}}`,
		},
		{
			name: "total-users",
			ev:   presence.TotalUsers(3),
			want: `{"type":"total-users","data":{"count":3}}`,
		},
		{
			name: "total-users zero",
			ev:   presence.TotalUsers(0),
			want: `{"type":"total-users","data":{"count":0}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := EncodeEvent(tt.ev)
			if err != nil {
				t.Fatalf("EncodeEvent() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeEvent() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeEvent_UnknownType(t *testing.T) {
	t.Parallel()

	if _, err := EncodeEvent(presence.Event{Type: "bogus"}); err == nil {
		t.Error("EncodeEvent() expected error for unknown event type")
	}
}

func TestEncodeError(t *testing.T) {
	t.Parallel()

	frame := EncodeError(CodeRateLimited, "slow down")

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("unmarshal error frame: %v", err)
	}
	if env.Type != TypeError {
		t.Errorf("type = %q, want %q", env.Type, TypeError)
	}

	var data ErrorData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal error data: %v", err)
	}
	if data.Code != CodeRateLimited || data.Message != "slow down" {
		t.Errorf("data = %+v", data)
	}
}

func TestErrorFrame_FromDecode(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"type":"send-location","data":{"latitude":0,"longitude":200}}`))
	frame := ErrorFrame(err)

	var env struct {
		Type string    `json:"type"`
		Data ErrorData `json:"data"`
	}
	if uerr := json.Unmarshal(frame, &env); uerr != nil {
		t.Fatalf("unmarshal: %v", uerr)
	}
	if env.Data.Code != CodeValidation {
		t.Errorf("code = %q, want %q", env.Data.Code, CodeValidation)
	}
	if env.Data.Message != "longitude must be a valid longitude (-180 to 180)" {
		t.Errorf("message = %q", env.Data.Message)
	}
}

func TestEncodePong(t *testing.T) {
	t.Parallel()

	var env Envelope
	if err := json.Unmarshal(EncodePong(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != TypePong {
		t.Errorf("type = %q, want pong", env.Type)
	}
}

func TestEncodeBatch(t *testing.T) {
	t.Parallel()

	a, _ := EncodeEvent(presence.TotalUsers(1))
	b, _ := EncodeEvent(presence.UserDisconnected("x"))

	got, err := EncodeBatch([][]byte{a, b})
	if err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}
	want := `[` + string(a) + `,` + string(b) + `]`
	if string(got) != want {
		t.Errorf("EncodeBatch() = %s, want %s", got, want)
	}

	empty, err := EncodeBatch(nil)
	if err != nil {
		t.Fatalf("EncodeBatch(nil) error = %v", err)
	}
	if string(empty) != `[]` {
		t.Errorf("EncodeBatch(nil) = %s, want []", empty)
	}
}
