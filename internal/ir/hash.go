package ir

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "brainplus/program/v1"
	DomainRun     = "brainplus/run/v1"
)

// hashWithDomain computes a BLAKE3 hash with domain separation.
// Format: BLAKE3(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) []byte {
	h := blake3.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// ProgramID computes the content-addressed ID of a program source.
// The ID is base58 so it can be typed on a command line.
func ProgramID(source string) string {
	return base58.Encode(hashWithDomain(DomainProgram, []byte(source)))
}

// RunDigest hashes the observable outcome of a run: terminal state,
// output, counters, error code and trace. Two executions of the same
// program with the same input and configuration must produce the same
// digest. Run ID, seq and timing are excluded.
func RunDigest(r *Run) (string, error) {
	canonical, err := MarshalCanonical(r.Outcome())
	if err != nil {
		return "", fmt.Errorf("RunDigest: failed to marshal: %w", err)
	}
	return base58.Encode(hashWithDomain(DomainRun, canonical)), nil
}

// ValidID reports whether id decodes as a 32-byte base58 hash.
func ValidID(id string) bool {
	raw, err := base58.Decode(id)
	return err == nil && len(raw) == 32
}
