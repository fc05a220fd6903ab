package transmux

import "fmt"

const (
	packetSize = 188
	syncByte   = 0x47
)

// decodePacket decodes exactly one 188-byte transport packet per
// ISO/IEC 13818-1 2.4.3.2/2.4.3.4. The returned packet's Payload borrows
// into buf; callers that need to persist it must copy.
func decodePacket(buf []byte, pos int64) (*TsPacket, error) {
	if len(buf) != packetSize {
		return nil, fmt.Errorf("transmux: packet size %d, expected %d", len(buf), packetSize)
	}
	if buf[0] != syncByte {
		return nil, fmt.Errorf("transmux: invalid sync byte 0x%02X", buf[0])
	}

	//  3          2          1          0
	// 10987654 32109876 54321098 76543210
	// aaaaaaaa bcdeeeee eeeeeeee ffgghhhh
	//
	// a: sync_word            e: pid
	// b: transport_error      f: transport_scrambling_control
	// c: payload_unit_start   g: adaptation_field_control
	// d: transport_priority   h: continuity_counter

	p := &TsPacket{Position: pos}
	p.PayloadStart = buf[1]&0x40 != 0
	p.PID = bits13(buf[1:3])
	afc := (buf[3] >> 4) & 0x03
	p.ContinuityCounter = buf[3] & 0x0F

	hasAdaptationField := afc&0x2 != 0
	hasPayload := afc&0x1 != 0

	offset := 4

	if !hasAdaptationField {
		if hasPayload {
			p.Payload = buf[offset:]
		}
		return p, nil
	}

	afLen := int(buf[offset])
	offset++
	remaining := packetSize - offset // bytes left after the adaptation_field_len byte itself

	// If a payload is not specified, the adaptation field must take up
	// the entire packet. Conversely, if a payload is specified, the
	// adaptation field cannot take up the entire packet.
	if !hasPayload && afLen != remaining {
		return nil, fmt.Errorf("transmux: adaptation_field_len %d, expected %d with no payload", afLen, remaining)
	}
	if hasPayload && afLen >= remaining {
		return nil, fmt.Errorf("transmux: adaptation_field_len %d leaves no room for payload", afLen)
	}

	if afLen == 0 {
		// Stuffing-byte form: no flags, rest is payload.
		if hasPayload {
			p.Payload = buf[offset:]
		}
		return p, nil
	}

	flags := buf[offset]
	p.Discontinuity = flags&0x80 != 0
	p.RandomAccess = flags&0x40 != 0
	pcrFlag := flags&0x10 != 0
	afBodyEnd := offset + afLen
	offset++

	if pcrFlag {
		if offset+6 > afBodyEnd {
			return nil, fmt.Errorf("transmux: adaptation field too short for PCR")
		}
		pcr := decodePCR(buf[offset : offset+6])
		p.PCR = &pcr
	}

	offset = afBodyEnd
	if hasPayload {
		p.Payload = buf[offset:]
	}
	return p, nil
}

// decodePCR extracts the 42-bit Program Clock Reference from 6 bytes:
// 33-bit base (90 kHz units), 6 reserved bits, 9-bit extension (27 MHz
// ticks). The result is base*300 + extension, in 27 MHz ticks.
func decodePCR(b []byte) uint64 {
	raw := uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
	base := raw >> 15       // top 33 bits
	extension := raw & 0x1FF // bottom 9 bits; the 6 reserved bits in between are never shifted in
	return base*300 + extension
}
