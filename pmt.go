package transmux

import "fmt"

const tableIDPmt uint8 = 2 // ISO/IEC 13818-1 Table 2-31

// parsePmtSection decodes a PMT section body (as handed over by
// psiReassembler, i.e. excluding the table header and CRC). PMTs are
// never split across sections in practice; section and last_section
// other than 0 are treated as malformed rather than reassembled.
func parsePmtSection(section []byte) (*Pmt, error) {
	if len(section) < 9 {
		return nil, fmt.Errorf("transmux: PMT section length %d, need at least 9", len(section))
	}

	programNumber := beUint16(section[0:2])
	version := (section[2] >> 1) & 0x1F
	currentNext := section[2]&0x01 != 0
	pmtSection := section[3]
	lastSection := section[4]
	pcrPID := bits13(section[5:7])

	if pmtSection != 0 || lastSection != 0 {
		return nil, fmt.Errorf("transmux: PMT section %d/%d, only a single section is supported", pmtSection, lastSection)
	}

	pmt := &Pmt{
		ProgramNumber: programNumber,
		Version:       version,
		CurrentNext:   currentNext,
		PCRPID:        pcrPID,
	}

	buf := section[7:]
	if len(buf) < 2 {
		return nil, fmt.Errorf("transmux: PMT section truncated before program_info_length")
	}
	programInfoLen := int(bits12(buf[0:2]))
	buf = buf[2:]
	if programInfoLen > len(buf) {
		return nil, fmt.Errorf("transmux: program_info_length %d exceeds remaining %d", programInfoLen, len(buf))
	}
	buf = buf[programInfoLen:]

	index := 0
	for len(buf) >= 5 {
		streamType := StreamType(buf[0])
		pid := bits13(buf[1:3])
		esInfoLen := int(bits12(buf[3:5]))
		buf = buf[5:]
		if esInfoLen > len(buf) {
			return nil, fmt.Errorf("transmux: ES_info_length %d exceeds remaining %d", esInfoLen, len(buf))
		}

		descs, err := parseDescriptors(buf[:esInfoLen])
		if err != nil {
			return nil, err
		}
		buf = buf[esInfoLen:]

		pmt.Streams = append(pmt.Streams, StreamInfo{
			PID:        pid,
			StreamType: streamType,
			Index:      index,
			Descs:      descs,
		})
		index++
	}

	return pmt, nil
}
