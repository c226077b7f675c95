// Package keycodec converts date labels to keys that are safe as remote path
// segments and back. "04.10" travels as "04_10".
//
// The transform is only invertible for labels that contain no underscore.
// EncodeMapping refuses such labels instead of producing a document that
// would decode to different keys.
package keycodec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
)

var ErrAmbiguousKey = errors.New("label contains the remote separator")

const (
	localSep  = "."
	remoteSep = "_"
)

// Encode replaces every "." with "_".
func Encode(label string) string {
	return strings.ReplaceAll(label, localSep, remoteSep)
}

// Decode replaces every "_" with ".".
func Decode(key string) string {
	return strings.ReplaceAll(key, remoteSep, localSep)
}

// EncodeMapping re-keys m for the remote side. Values are copied untouched.
func EncodeMapping(m models.RecordMapping) (models.RecordMapping, error) {
	out := make(models.RecordMapping, len(m))
	for label, r := range m {
		if strings.Contains(label, remoteSep) {
			return nil, fmt.Errorf("%w: %q", ErrAmbiguousKey, label)
		}
		out[Encode(label)] = r
	}
	return out, nil
}

// DecodeMapping re-keys a remote mapping back to date labels.
func DecodeMapping(m models.RecordMapping) models.RecordMapping {
	out := make(models.RecordMapping, len(m))
	for key, r := range m {
		out[Decode(key)] = r
	}
	return out
}
