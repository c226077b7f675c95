package models

// SyncEnvelope is the whole document stored at the remote location of a
// SyncId. Data keys are remote-encoded (see keycodec).
type SyncEnvelope struct {
	Data      RecordMapping `json:"data"`
	Timestamp string        `json:"timestamp"`
	SyncID    string        `json:"syncId"`
}

// RawEnvelope is the decoding shape used on receipt, where absent fields must
// be told apart from empty ones.
type RawEnvelope struct {
	Data      *RecordMapping `json:"data"`
	Timestamp *string        `json:"timestamp"`
	SyncID    string         `json:"syncId"`
}
