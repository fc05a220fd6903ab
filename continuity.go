package transmux

// pidContinuity tracks the continuity_counter sequence for a single PID
// per ISO/IEC 13818-1 2.4.3.3, distinguishing duplicate packets from
// genuine discontinuities.
type pidContinuity struct {
	counter   uint8
	haveCount bool
}

// observe reports how to treat pkt: whether it is a duplicate to be
// dropped, and whether an unsignaled discontinuity happened first (in
// which case the caller should process a reset before the packet).
//
// Packets with no payload (adaptation-field-only) do not carry the
// continuity_counter forward, per the standard, but are never dropped.
func (c *pidContinuity) observe(pkt *TsPacket) (duplicate, reset bool) {
	if !pkt.HasPayload() {
		return false, false
	}
	if c.haveCount {
		expected := (c.counter + 1) % 16
		if pkt.ContinuityCounter != expected {
			if pkt.ContinuityCounter == c.counter {
				return true, false
			}
			c.counter = pkt.ContinuityCounter
			return false, true
		}
	}
	c.counter = pkt.ContinuityCounter
	c.haveCount = true
	return false, false
}
