// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ubx

// CalculateChecksum computes the 8-bit Fletcher checksum pair over data.
// For a frame, data is class, id, both length bytes and the payload.
func CalculateChecksum(data []byte) (ckA, ckB uint8) {
	var ck checksum
	ck.write(data)
	return ck.a, ck.b
}

// checksum accumulates the Fletcher pair one byte at a time
type checksum struct {
	a, b uint8
}

func (c *checksum) reset() {
	c.a, c.b = 0, 0
}

func (c *checksum) add(v byte) {
	c.a += v
	c.b += c.a
}

func (c *checksum) write(data []byte) {
	for _, v := range data {
		c.add(v)
	}
}
