package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator produces run identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run identifiers, so
// reports sort by the time they were produced.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// digestDomain separates report digests from any other SHA-256 use.
const digestDomain = "ubt/report/v1"

// Digest hashes the canonical encoding of v. Two results with the same
// digest are byte-for-byte the same result.
func Digest(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Report stamps a result with the run that produced it. Digest covers
// Result only, so reruns of the same input compare equal by digest while
// RunID tells them apart.
type Report struct {
	RunID  string `json:"run_id"`
	Name   string `json:"name"`
	Digest string `json:"digest"`
	Result any    `json:"result"`
}

// New builds a Report for result. A nil gen uses UUIDv7Generator.
func New(gen IDGenerator, name string, result any) (*Report, error) {
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	digest, err := Digest(result)
	if err != nil {
		return nil, err
	}
	return &Report{
		RunID:  gen.Generate(),
		Name:   name,
		Digest: digest,
		Result: result,
	}, nil
}
