// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package protocol

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/presence-relay/internal/metrics"
	"github.com/tomtom215/presence-relay/internal/presence"
	"github.com/tomtom215/presence-relay/internal/validation"
)

// ErrUnknownType is wrapped by Decode when the envelope type is not one a
// client may send.
var ErrUnknownType = errors.New("protocol: unknown message type")

// DecodeError is returned by Decode for any inbound message the client has
// to fix. The connection stays open.
type DecodeError struct {
	// Reason is the metrics rejection label (malformed or validation).
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Inbound is a decoded and validated client message.
type Inbound struct {
	Type     string
	Location presence.Location // set for send-location
}

// Decode parses one client frame. Every failure is a *DecodeError.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Inbound{}, &DecodeError{Reason: metrics.ReasonMalformed, Err: fmt.Errorf("malformed envelope: %w", err)}
	}

	switch env.Type {
	case TypePing:
		return Inbound{Type: TypePing}, nil

	case TypeSendLocation:
		var p LocationPayload
		if len(env.Data) == 0 {
			return Inbound{}, &DecodeError{
				Reason: metrics.ReasonValidation,
				Err:    validation.NewRequestValidationError("data", "required", "data is required"),
			}
		}
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Inbound{}, &DecodeError{
				Reason: metrics.ReasonValidation,
				Err:    validation.NewRequestValidationError("data", "type", "latitude and longitude must be numbers"),
			}
		}
		if verr := validation.ValidateStruct(&p); verr != nil {
			return Inbound{}, &DecodeError{Reason: metrics.ReasonValidation, Err: verr}
		}
		return Inbound{
			Type:     TypeSendLocation,
			Location: presence.Location{Latitude: *p.Latitude, Longitude: *p.Longitude},
		}, nil

	default:
		return Inbound{}, &DecodeError{Reason: metrics.ReasonValidation, Err: fmt.Errorf("%w: %q", ErrUnknownType, env.Type)}
	}
}

// EncodeEvent renders a presence event as a wire frame.
func EncodeEvent(ev presence.Event) ([]byte, error) {
	switch ev.Type {
	case presence.EventReceivedLocation:
		return encode(TypeReceivedLocation, ReceivedLocationData{
			ID:        ev.ID,
			Latitude:  ev.Location.Latitude,
			Longitude: ev.Location.Longitude,
		})
	case presence.EventUserDisconnected:
		return encode(TypeUserDisconnected, UserDisconnectedData{ID: ev.ID})
	case presence.EventTotalUsers:
		return encode(TypeTotalUsers, TotalUsersData{Count: ev.Count})
	default:
		return nil, fmt.Errorf("encode event: unsupported type %q", ev.Type)
	}
}

// EncodePong renders the reply to a client ping.
func EncodePong() []byte {
	return []byte(`{"type":"pong"}`)
}

// EncodeError renders an error frame.
func EncodeError(code, message string) []byte {
	data, err := encode(TypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		return []byte(`{"type":"error","data":{"code":"` + code + `","message":"internal error"}}`)
	}
	return data
}

// ErrorFrame maps a Decode or validation error to the error frame sent back
// to the client.
func ErrorFrame(err error) []byte {
	code, message := Classify(err)
	return EncodeError(code, message)
}

// Classify returns the error code and client-facing message for err.
func Classify(err error) (code, message string) {
	var verr *validation.RequestValidationError
	switch {
	case errors.Is(err, ErrUnknownType):
		return CodeUnknownType, err.Error()
	case errors.As(err, &verr):
		return CodeValidation, verr.ToAPIError().Message
	default:
		var derr *DecodeError
		if errors.As(err, &derr) && derr.Reason == metrics.ReasonMalformed {
			return CodeMalformed, "message must be a JSON object with a type field"
		}
		return CodeValidation, err.Error()
	}
}

// EncodeBatch joins frames into a JSON array for the long-poll transport.
func EncodeBatch(frames [][]byte) ([]byte, error) {
	raw := make([]json.RawMessage, len(frames))
	for i, f := range frames {
		raw[i] = f
	}
	return json.Marshal(raw)
}

func encode(msgType string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Data: payload})
}
