package portal

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodingDim is the fixed shape of a stored face encoding. The biometric
// collaborator produces 128-dimensional vectors; anything else is rejected at
// the storage boundary.
const EncodingDim = 128

// FaceEncoding is the numeric vector persisted for a student. The portal only
// stores and returns it; comparison and liveness live in an external system.
type FaceEncoding []float32

// Bytes serializes the vector as little-endian float32s.
func (e FaceEncoding) Bytes() ([]byte, error) {
	if len(e) != EncodingDim {
		return nil, fmt.Errorf("face encoding has %d dimensions, want %d", len(e), EncodingDim)
	}
	buf := make([]byte, 4*len(e))
	for i, v := range e {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// DecodeFaceEncoding parses a stored blob back into a vector, validating its
// shape.
func DecodeFaceEncoding(blob []byte) (FaceEncoding, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("face encoding blob length %d is not float32-aligned", len(blob))
	}
	if len(blob)/4 != EncodingDim {
		return nil, fmt.Errorf("face encoding blob has %d dimensions, want %d", len(blob)/4, EncodingDim)
	}
	enc := make(FaceEncoding, EncodingDim)
	for i := range enc {
		enc[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return enc, nil
}
