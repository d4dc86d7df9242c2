// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomFrame builds a valid frame with a random class, id and payload
func randomFrame(rng *rand.Rand, maxPayload int) []byte {
	payload := make([]byte, rng.Intn(maxPayload+1))
	rng.Read(payload)
	return AppendFrame(nil, uint8(rng.Intn(256)), uint8(rng.Intn(256)), payload)
}

// noise returns n random bytes that never contain the first preamble byte
func noise(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		for {
			b[i] = byte(rng.Intn(256))
			if b[i] != Sync1 {
				break
			}
		}
	}
	return b
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

// Streaming and bulk validation agree: a byte sequence yields a frame on its
// final byte exactly when DecodeFrame accepts it as a whole.
func TestFuzz_StreamingMatchesBulk(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		data := randomFrame(rng, 96)

		// Corrupt about half of the frames in one random position
		if rng.Intn(2) == 0 {
			data[rng.Intn(len(data))] ^= byte(1 + rng.Intn(255))
		}

		d := NewDecoder()
		var streamed *Frame
		for j, b := range data {
			f, _ := d.DecodeByte(b)
			if f != nil && j == len(data)-1 {
				streamed = f.Clone()
			}
		}

		bulk, bulkErr := DecodeFrame(data)
		if (streamed != nil) != (bulkErr == nil) {
			t.Fatalf("round %d: streaming=%v bulk err=%v for % X", i, streamed != nil, bulkErr, data)
		}
		if streamed != nil {
			if streamed.Class != bulk.Class || streamed.ID != bulk.ID || !bytes.Equal(streamed.Payload, bulk.Payload) {
				t.Fatalf("round %d: streaming and bulk frames differ", i)
			}
		}
	}
}

// All frames separated by preamble-free noise are recovered in order
func TestFuzz_NoisyStream(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds() / 10
	if rounds < 1 {
		rounds = 1
	}

	for i := 0; i < rounds; i++ {
		var stream []byte
		var want [][]byte
		count := 1 + rng.Intn(10)
		for j := 0; j < count; j++ {
			stream = append(stream, noise(rng, rng.Intn(20))...)
			f := randomFrame(rng, 200)
			want = append(want, f)
			stream = append(stream, f...)
		}

		d := NewDecoder()
		frames, errs := feed(d, stream)
		if len(errs) != 0 {
			t.Fatalf("round %d: unexpected errors %v", i, errs)
		}
		if len(frames) != len(want) {
			t.Fatalf("round %d: expected %d frames, got %d", i, len(want), len(frames))
		}
		for j, f := range frames {
			if !bytes.Equal(f.AppendWire(nil), want[j]) {
				t.Fatalf("round %d: frame %d differs", i, j)
			}
		}
	}
}

// Random garbage never panics and never yields an invalid frame
func TestFuzz_RandomBytes(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	d := NewDecoder()
	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(512))
		rng.Read(data)
		// Bias towards preambles so the later states get exercised
		for k := 0; k+1 < len(data); k += 1 + rng.Intn(64) {
			data[k], data[k+1] = Sync1, Sync2
		}

		for _, b := range data {
			f, _ := d.DecodeByte(b)
			if f == nil {
				continue
			}
			if f.Length() > MaxPayloadSize {
				t.Fatalf("round %d: frame exceeds maximum payload", i)
			}
			if _, err := DecodeFrame(f.AppendWire(nil)); err != nil {
				t.Fatalf("round %d: decoder yielded a frame that fails validation: %v", i, err)
			}
		}
	}
}

// Random payloads never panic the typed decoders
func TestFuzz_MessageDecoders(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	ids := [][2]uint8{
		{ClassNAV, MsgNavPosLLH}, {ClassNAV, MsgNavStatus}, {ClassNAV, MsgNavSol},
		{ClassNAV, MsgNavPVT}, {ClassNAV, MsgNavVelNED}, {ClassNAV, MsgNavTimeUTC},
		{ClassNAV, MsgNavSVInfo}, {ClassNAV, MsgNavSat}, {ClassNAV, MsgNavSig},
		{ClassACK, MsgAckAck}, {ClassMON, MsgMonVer}, {ClassMON, MsgMonGNSS},
	}

	for i := 0; i < rounds; i++ {
		id := ids[rng.Intn(len(ids))]
		payload := make([]byte, rng.Intn(MaxPayloadSize+1))
		rng.Read(payload)
		f := &Frame{Class: id[0], ID: id[1], Payload: payload}

		_, _ = Decode(f)
		ValidateFrame(f)
		_ = FormatFrame(f, time.Now())
	}
}
