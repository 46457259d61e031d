package point

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/vecsync/internal/db"
	domcol "github.com/kailas-cloud/vecsync/internal/domain/collection"
	"github.com/kailas-cloud/vecsync/internal/domain/collection/field"
	dompoint "github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// Reserved hash fields. Declared payload fields are stored next to them.
const (
	fieldID      = "__id"
	fieldPayload = "__payload"
	fieldVector  = "__vector"
)

// pointToHash converts a Point into a flat map for HSET.
// Tag fields hold the text form of scalars; numeric fields are written only for numbers.
func pointToHash(col domcol.Collection, p dompoint.Point) (map[string]string, error) {
	idJSON, err := json.Marshal(p.ID())
	if err != nil {
		return nil, fmt.Errorf("marshal id: %w", err)
	}
	payloadJSON, err := json.Marshal(p.Payload())
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	m := make(map[string]string, 3+len(col.Fields()))
	m[fieldID] = string(idJSON)
	m[fieldPayload] = string(payloadJSON)
	m[fieldVector] = vectorToBytes(p.Vector())

	for _, f := range col.Fields() {
		v, ok := p.Payload()[f.Name()]
		if !ok {
			continue
		}
		switch f.FieldType() {
		case field.Tag:
			// A value holding the separator would be split into several tags.
			if v.IsScalar() && !strings.Contains(v.Text(), db.TagSeparatorExact) {
				m[f.Name()] = v.Text()
			}
		case field.Numeric:
			if v.Kind() == value.KindNumber {
				m[f.Name()] = value.FormatNumber(v.AsNumber())
			}
		}
	}
	return m, nil
}

// decodeEntry restores the point ID and payload from the reserved hash fields.
func decodeEntry(fields map[string]string) (dompoint.ID, value.Map, error) {
	var id dompoint.ID
	if err := json.Unmarshal([]byte(fields[fieldID]), &id); err != nil {
		return dompoint.ID{}, nil, fmt.Errorf("unmarshal id: %w", err)
	}

	payload := value.Map{}
	if raw := fields[fieldPayload]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return dompoint.ID{}, nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return id, payload, nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
