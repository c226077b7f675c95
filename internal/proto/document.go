package proto

import (
	"errors"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// FieldSyncID is the envelope field the server keys documents by.
const FieldSyncID = "syncId"

var ErrMissingSyncID = errors.New("document has no syncId")

// DocumentFromJSON parses a JSON object into a Struct.
func DocumentFromJSON(b []byte) (*structpb.Struct, error) {
	doc := &structpb.Struct{}
	if err := protojson.Unmarshal(b, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DocumentToJSON renders doc as a JSON object.
func DocumentToJSON(doc *structpb.Struct) ([]byte, error) {
	return protojson.Marshal(doc)
}

// SyncIDOf returns the syncId string field of doc.
func SyncIDOf(doc *structpb.Struct) (string, error) {
	v, ok := doc.GetFields()[FieldSyncID]
	if !ok {
		return "", ErrMissingSyncID
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || s.StringValue == "" {
		return "", ErrMissingSyncID
	}
	return s.StringValue, nil
}
