// Package export writes the diary out as a JSON data file or a printable
// PDF table, and reads a JSON data file back in.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/filex"
)

const (
	DefaultJSONFile = "health_data.json"
	DefaultPDFFile  = "temperature_monitoring.pdf"
)

// WriteJSON writes m as an indented JSON object keyed by date label.
func WriteJSON(w io.Writer, m models.RecordMapping) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m.Clone())
}

// ReadJSON parses a mapping written by WriteJSON. Anything that is not a JSON
// object of readings fails with common.ErrImportMalformed.
func ReadJSON(r io.Reader) (models.RecordMapping, error) {
	var m models.RecordMapping
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrImportMalformed, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: not an object", common.ErrImportMalformed)
	}
	return m, nil
}

func SaveJSON(path string, m models.RecordMapping) error {
	return filex.WriteAtomic(path, func(w io.Writer) error {
		return WriteJSON(w, m)
	})
}

func LoadJSON(path string) (models.RecordMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadJSON(f)
}
