package engine

import (
	"crypto/hmac"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// Source yields uniform floats in [0, 1). Samplers take a Source instead of
// reaching for a global generator so batches can be replayed and parallel
// workers can own independent streams.
type Source interface {
	Float64() float64
}

// Stream generates deterministic bytes using HMAC-SHA256. Stream identity is
// (seed, trial): each trial in a batch owns its own stream, so a batch
// replays bit-for-bit regardless of worker count or scheduling.
type Stream struct {
	key          [8]byte
	trial        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewStream creates the stream for one trial under the given batch seed.
func NewStream(seed, trial uint64) *Stream {
	s := &Stream{trial: trial}
	binary.BigEndian.PutUint64(s.key[:], seed)

	// Always generate the initial round
	s.generateRound()

	return s
}

// Next returns the next byte from the stream.
func (s *Stream) Next() byte {
	// Check if we need to advance to the next round
	if s.currentPos >= 32 {
		s.currentRound++
		s.currentPos = 0
		s.generateRound()
	}

	b := s.buffer[s.currentPos]
	s.currentPos++
	return b
}

// Float64 generates the next float using exactly 4 bytes.
func (s *Stream) Float64() float64 {
	b0 := s.Next()
	b1 := s.Next()
	b2 := s.Next()
	b3 := s.Next()

	return bytesToFloat([4]byte{b0, b1, b2, b3})
}

func (s *Stream) generateRound() {
	h := hmac.New(sha256.New, s.key[:])
	fmt.Fprintf(h, "%d:%d", s.trial, s.currentRound)
	copy(s.buffer[:], h.Sum(nil))
}

// bytesToFloat converts exactly 4 bytes to float64 in [0, 1).
func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		divider := math.Pow(256, float64(i+1))
		result += float64(b) / divider
	}
	return result
}

// Floats generates the specified number of floats from a fresh trial stream.
func Floats(seed, trial uint64, count int) []float64 {
	s := NewStream(seed, trial)
	floats := make([]float64, count)

	for i := 0; i < count; i++ {
		floats[i] = s.Float64()
	}

	return floats
}

// RandomSeed returns a seed from the OS entropy pool, for callers that did
// not supply one and do not need replay.
func RandomSeed() (uint64, error) {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read random seed: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
