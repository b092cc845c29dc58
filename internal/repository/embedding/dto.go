package embedding

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// recordDTO is the stored JSON shape of an embedding record. The vector is a
// base64-encoded little-endian float32 blob (4 bytes per component), not a
// loosely-typed JSON array, so length is validated on every read.
type recordDTO struct {
	ImageHash          string `json:"image_hash"`
	Vector             string `json:"vector"`
	NormalizedImageRef string `json:"normalized_image_ref,omitempty"`
	Degraded           bool   `json:"degraded,omitempty"`
	CreatedAt          int64  `json:"created_at"`
}

func toDTO(rec *domain.EmbeddingRecord) recordDTO {
	return recordDTO{
		ImageHash:          rec.ImageHash,
		Vector:             base64.StdEncoding.EncodeToString(vectorToBytes(rec.Vector)),
		NormalizedImageRef: rec.NormalizedImageRef,
		Degraded:           rec.Degraded,
		CreatedAt:          rec.CreatedAt.Unix(),
	}
}

func fromDTO(dto recordDTO, dim int) (domain.EmbeddingRecord, error) {
	raw, err := base64.StdEncoding.DecodeString(dto.Vector)
	if err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("decode vector for %s: %w", dto.ImageHash, err)
	}
	vec, err := bytesToVector(raw)
	if err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("parse vector for %s: %w", dto.ImageHash, err)
	}

	// Fail fast on corruption instead of letting a malformed vector reach
	// similarity math. Degraded sentinel records legitimately carry no vector.
	if !dto.Degraded {
		if err := domain.ValidateVector(vec, dim); err != nil {
			return domain.EmbeddingRecord{}, fmt.Errorf("stored vector for %s: %w", dto.ImageHash, err)
		}
	}

	return domain.EmbeddingRecord{
		ImageHash:          dto.ImageHash,
		Vector:             vec,
		NormalizedImageRef: dto.NormalizedImageRef,
		Degraded:           dto.Degraded,
		CreatedAt:          time.Unix(dto.CreatedAt, 0).UTC(),
	}, nil
}

// vectorToBytes serializes []float32 to 4 bytes per float, little-endian.
func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data: len=%d (not multiple of 4)", len(data))
	}
	if len(data) == 0 {
		return nil, nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
