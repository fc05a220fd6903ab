package transmux

import "fmt"

// Recognized PMT descriptor tags. Unrecognized tags are skipped rather
// than surfaced as StreamDesc values.
const (
	DescriptorTagRegistration uint8 = 5
	DescriptorTagMetadata     uint8 = 38
	DescriptorTagAC3          uint8 = 106
	DescriptorTagEAC3         uint8 = 122
)

// parseDescriptors walks a descriptor loop (a sequence of
// tag/length/data triples, ISO/IEC 13818-1 2.6) and decodes the tags this
// package understands. Unknown tags are skipped using their length field.
func parseDescriptors(buf []byte) ([]StreamDesc, error) {
	var descs []StreamDesc
	for len(buf) > 0 {
		if len(buf) < 2 {
			return nil, fmt.Errorf("transmux: descriptor loop truncated")
		}
		tag := buf[0]
		length := int(buf[1])
		buf = buf[2:]
		if length > len(buf) {
			return nil, fmt.Errorf("transmux: descriptor tag %d length %d exceeds remaining %d", tag, length, len(buf))
		}
		data := buf[:length]
		buf = buf[length:]

		d, err := parseDescriptor(tag, data)
		if err != nil {
			return nil, err
		}
		if d != nil {
			descs = append(descs, d)
		}
	}
	return descs, nil
}

// parseDescriptor decodes a single descriptor's tag/data. A nil, nil
// result means the tag is unrecognized, or a recognized tag's data was
// too short to decode — in both cases the descriptor is silently
// omitted rather than failing the whole descriptor loop.
func parseDescriptor(tag uint8, data []byte) (StreamDesc, error) {
	switch tag {
	case DescriptorTagRegistration:
		if len(data) < 4 {
			return nil, nil
		}
		return RegistrationDesc{FormatID: beUint32(data[:4])}, nil

	case DescriptorTagMetadata:
		if len(data) < 2 {
			return nil, nil
		}
		appFormat := beUint16(data[:2])
		if appFormat != 0xFFFF {
			return MetadataDesc{}, nil
		}
		if len(data) < 6 {
			return nil, nil
		}
		v := beUint32(data[2:6])
		return MetadataDesc{AppFormatID: &v}, nil

	case DescriptorTagAC3:
		return Ac3Desc{}, nil

	case DescriptorTagEAC3:
		return Eac3Desc{}, nil

	default:
		return nil, nil
	}
}
