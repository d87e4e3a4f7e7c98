// Package cache stores each user's annotation snapshot in the local SQLite
// database as a versioned JSON envelope:
//
//	{"addresses": [...], "lastUpdated": "2024-05-01T10:00:00Z", "version": "1.0"}
//
// Payloads written by older releases as a bare JSON array are still read.
// A payload that cannot be decoded is reported with common.ErrMalformedCache
// together with an empty envelope, so callers can carry on from scratch.
package cache
