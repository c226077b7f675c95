// Package models holds the server-side persistence types.
package models

import "time"

// Envelope is the latest document stored under one SyncId. Document is the
// raw JSON object exactly as the client sent it.
type Envelope struct {
	SyncID    string
	Document  []byte
	UpdatedAt time.Time
}
