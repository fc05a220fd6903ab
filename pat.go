package transmux

import "fmt"

const tableIDPat uint8 = 0 // ISO/IEC 13818-1 Table 2-31

// parsePatSection decodes a PAT section body (as handed over by
// psiReassembler, i.e. excluding the table header and CRC). PATs are
// never split across sections in practice; section and last_section
// other than 0 are treated as malformed rather than reassembled.
func parsePatSection(section []byte) (*Pat, error) {
	if len(section) < 5 {
		return nil, fmt.Errorf("transmux: PAT section length %d, need at least 5", len(section))
	}

	patSection := section[3]
	lastSection := section[4]
	if patSection != 0 || lastSection != 0 {
		return nil, fmt.Errorf("transmux: PAT section %d/%d, only a single section is supported", patSection, lastSection)
	}

	pat := &Pat{
		TransportStreamID: beUint16(section[0:2]),
		Version:           (section[2] >> 1) & 0x1F,
		CurrentNext:       section[2]&0x01 != 0,
		Section:           section[3],
		LastSection:       section[4],
	}

	buf := section[5:]
	for len(buf) >= 4 {
		programNumber := beUint16(buf[0:2])
		pid := bits13(buf[2:4])
		buf = buf[4:]

		if programNumber == 0 {
			v := pid
			pat.NetworkPID = &v
		} else {
			pat.Programs = append(pat.Programs, ProgramInfo{Number: programNumber, PID: pid})
		}
	}

	return pat, nil
}
