// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

// Package validation provides struct validation using go-playground/validator v10.
//
// A single thread-safe validator instance caches struct metadata and reports
// field names by their json tag, so error messages match what clients send:
//
//	type locationPayload struct {
//	    Latitude  *float64 `json:"latitude" validate:"required,latitude"`
//	    Longitude *float64 `json:"longitude" validate:"required,longitude"`
//	}
//
//	if verr := validation.ValidateStruct(&p); verr != nil {
//	    // verr.Error() == "latitude must be a valid latitude (-90 to 90)"
//	}
//
// Coordinates are pointers so that 0 (equator, prime meridian) is distinguishable
// from a missing field.
package validation
