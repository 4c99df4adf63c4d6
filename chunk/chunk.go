// Package chunk splits a dictionary into fixed-size batches of keys, each
// serialized as the JSON payload for one translation request.
package chunk

import (
	"errors"
	"fmt"

	"github.com/minios-linux/glotto/dict"
)

// ErrInvalidMaxKeys is returned when the batch size is not positive.
var ErrInvalidMaxKeys = errors.New("max keys per chunk must be at least 1")

// Chunk is one contiguous run of dictionary keys.
type Chunk struct {
	// Position is the 1-based position of the chunk in the split.
	Position int
	// Keys are the dictionary keys carried by the chunk, in source order.
	Keys []string
	// Data is the compact UTF-8 JSON encoding of the sub-object.
	Data []byte
}

// Split divides d into ceil(len/maxKeys) chunks. Every chunk but the last
// holds exactly maxKeys keys; key order follows d. An empty dictionary
// yields no chunks.
func Split(d *dict.Dictionary, maxKeys int) ([]Chunk, error) {
	if maxKeys <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidMaxKeys, maxKeys)
	}

	total := d.Len()
	count := total / maxKeys
	if total%maxKeys != 0 {
		count++
	}
	chunks := make([]Chunk, 0, count)

	for i := 0; i < count; i++ {
		start := i * maxKeys
		end := start + min(maxKeys, total-start)

		sub := d.Slice(start, end)
		chunks = append(chunks, Chunk{
			Position: i + 1,
			Keys:     sub.Keys(),
			Data:     sub.Bytes(),
		})
	}

	return chunks, nil
}

// String describes the chunk for log output.
func (c Chunk) String() string {
	switch len(c.Keys) {
	case 0:
		return fmt.Sprintf("chunk %d (empty)", c.Position)
	case 1:
		return fmt.Sprintf("chunk %d (%q)", c.Position, c.Keys[0])
	default:
		return fmt.Sprintf("chunk %d (%q..%q)", c.Position, c.Keys[0], c.Keys[len(c.Keys)-1])
	}
}
