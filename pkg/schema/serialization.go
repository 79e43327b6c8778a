package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmarche/fabula/pkg/domain"
)

// Serialize builds a versioned envelope around the payload and stamps it
// with a checksum of the canonical payload encoding.
func Serialize(payload Payload, engineVersion string) (*Envelope, error) {
	sum, err := Checksum(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum payload: %w", err)
	}

	return &Envelope{
		Version:       Version,
		EngineVersion: engineVersion,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
		Checksum:      sum,
	}, nil
}

// DecodeOptions controls deserialization behavior.
type DecodeOptions struct {
	// ValidateChecksum recomputes the payload hash and fails with a
	// domain.IntegrityError on mismatch. When false, deserialization is
	// optimistic and trusts the envelope.
	ValidateChecksum bool
}

// Deserialize extracts the payload from an envelope, optionally verifying
// its integrity first. The envelope is not modified.
func Deserialize(env *Envelope, opts DecodeOptions) (*Payload, error) {
	if env == nil {
		return nil, fmt.Errorf("envelope is nil")
	}
	if env.Version > Version {
		return nil, fmt.Errorf("envelope version %d is newer than supported version %d", env.Version, Version)
	}

	if opts.ValidateChecksum {
		if err := ValidateChecksum(env); err != nil {
			return nil, err
		}
	}

	payload := env.Payload
	return &payload, nil
}

// ValidateChecksum recomputes the payload hash and compares it to the
// envelope's declared checksum. Returns a domain.IntegrityError on mismatch.
func ValidateChecksum(env *Envelope) error {
	sum, err := Checksum(env.Payload)
	if err != nil {
		return fmt.Errorf("failed to checksum payload: %w", err)
	}
	if sum != env.Checksum {
		return &domain.IntegrityError{Expected: env.Checksum, Actual: sum}
	}
	return nil
}

// Encode marshals an envelope to its JSON wire form.
func Encode(env *Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses envelope bytes. It does not verify the checksum; pass the
// result through Deserialize for that.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return &env, nil
}

// Checksum hashes the canonical JSON encoding of the payload.
// encoding/json sorts map keys, so the encoding is stable for equal payloads
// regardless of insertion order or a prior decode cycle. Exported so store
// middleware that rewrites a payload can re-stamp the envelope.
func Checksum(payload Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
