package transmux

import "fmt"

// TsPacket is a decoded 188-byte transport packet. Payload borrows into
// the framer's internal buffer and must not be retained past the call
// that produced it.
type TsPacket struct {
	PID               uint16
	ContinuityCounter uint8
	PayloadStart      bool
	Discontinuity     bool
	RandomAccess      bool
	PCR               *uint64 // 42-bit, 27 MHz clock: base*300 + extension
	Payload           []byte
	Position          int64 // monotone byte offset from start of input
}

// HasPayload reports whether the packet carries payload bytes.
func (p *TsPacket) HasPayload() bool {
	return len(p.Payload) > 0
}

// StreamType identifies an elementary stream's coding per
// ISO/IEC 13818-1 Table 2-34 (plus common user-private assignments).
type StreamType uint8

// Recognized stream types. Values outside this set are still valid
// StreamTypes; String falls back to a generic "undefined" label.
const (
	StreamTypeMPEG1Video       StreamType = 0x01
	StreamTypeMPEG2Video       StreamType = 0x02
	StreamTypeMPEG1Audio       StreamType = 0x03
	StreamTypeMPEG2Audio       StreamType = 0x04
	StreamTypePESPrivateData   StreamType = 0x06
	StreamTypeADTSAAC          StreamType = 0x0F
	StreamTypeMetadata         StreamType = 0x15
	StreamTypeAVC              StreamType = 0x1B
	StreamTypeHEVC             StreamType = 0x24
	StreamTypeTEMI             StreamType = 0x27
	StreamTypeAC3              StreamType = 0x81
	StreamTypeSCTE35           StreamType = 0x86
	StreamTypeEAC3             StreamType = 0x87
	StreamTypeEncryptedAC3     StreamType = 0xC1
	StreamTypeEncryptedEAC3    StreamType = 0xC2
	StreamTypeEncryptedADTSAAC StreamType = 0xCF
	StreamTypeEncryptedAVC     StreamType = 0xDB
)

var streamTypeNames = map[StreamType]string{
	StreamTypeMPEG1Video:       "MPEG1_VIDEO",
	StreamTypeMPEG2Video:       "MPEG2_VIDEO",
	StreamTypeMPEG1Audio:       "MPEG1_AUDIO",
	StreamTypeMPEG2Audio:       "MPEG2_AUDIO",
	StreamTypePESPrivateData:   "PES_PRIVATE_DATA",
	StreamTypeADTSAAC:          "ADTS_AAC",
	StreamTypeMetadata:         "METADATA",
	StreamTypeAVC:              "AVC",
	StreamTypeHEVC:             "HEVC",
	StreamTypeTEMI:             "TEMI",
	StreamTypeAC3:              "AC3",
	StreamTypeSCTE35:           "SCTE35",
	StreamTypeEAC3:             "EAC3",
	StreamTypeEncryptedAC3:     "ENCRYPTED_AC3",
	StreamTypeEncryptedEAC3:    "ENCRYPTED_EAC3",
	StreamTypeEncryptedADTSAAC: "ENCRYPTED_ADTS_AAC",
	StreamTypeEncryptedAVC:     "ENCRYPTED_AVC",
}

// String returns a display label such as "AVC (0x1b)".
func (t StreamType) String() string {
	name, ok := streamTypeNames[t]
	if !ok {
		name = "undefined"
	}
	return fmt.Sprintf("%s (0x%02x)", name, uint8(t))
}

// ProgramInfo maps a program number to the PID of its PMT.
type ProgramInfo struct {
	Number uint16 // nonzero; program_number 0 is reserved for the network PID
	PID    uint16 // 13-bit
}

// Pat is a decoded Program Association Table.
type Pat struct {
	TransportStreamID uint16
	Version           uint8 // 5-bit
	CurrentNext       bool
	Section           uint8
	LastSection       uint8
	NetworkPID        *uint16
	Programs          []ProgramInfo
}

// Equal reports whether two PATs are structurally identical, including
// program order. Used to suppress redundant Pat events.
func (p *Pat) Equal(o *Pat) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.TransportStreamID != o.TransportStreamID ||
		p.Version != o.Version ||
		p.CurrentNext != o.CurrentNext ||
		p.Section != o.Section ||
		p.LastSection != o.LastSection {
		return false
	}
	if (p.NetworkPID == nil) != (o.NetworkPID == nil) {
		return false
	}
	if p.NetworkPID != nil && *p.NetworkPID != *o.NetworkPID {
		return false
	}
	if len(p.Programs) != len(o.Programs) {
		return false
	}
	for i := range p.Programs {
		if p.Programs[i] != o.Programs[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy, safe to retain independently of the original.
func (p *Pat) Clone() *Pat {
	if p == nil {
		return nil
	}
	c := *p
	if p.NetworkPID != nil {
		pid := *p.NetworkPID
		c.NetworkPID = &pid
	}
	if p.Programs != nil {
		c.Programs = append([]ProgramInfo(nil), p.Programs...)
	}
	return &c
}

// StreamDesc is a decoded PMT elementary-stream descriptor.
type StreamDesc interface {
	Tag() uint8
}

// RegistrationDesc is the registration_descriptor (tag 5, ISO/IEC 13818-1
// Table 2-45), identifying a format via a 4-byte registered identifier.
type RegistrationDesc struct {
	FormatID uint32
}

// Tag returns the registration_descriptor tag.
func (RegistrationDesc) Tag() uint8 { return DescriptorTagRegistration }

// MetadataDesc is the metadata_descriptor (tag 38, ISO/IEC 13818-1 Table 2-45).
type MetadataDesc struct {
	AppFormatID *uint32 // set only when metadata_application_format == 0xFFFF
}

// Tag returns the metadata_descriptor tag.
func (MetadataDesc) Tag() uint8 { return DescriptorTagMetadata }

// Ac3Desc is the AC-3 descriptor (tag 106, ETSI EN 300 468 Annex D.3).
type Ac3Desc struct{}

// Tag returns the AC-3 descriptor tag.
func (Ac3Desc) Tag() uint8 { return DescriptorTagAC3 }

// Eac3Desc is the Enhanced AC-3 descriptor (tag 122, ETSI EN 300 468 Annex D.5).
type Eac3Desc struct{}

// Tag returns the E-AC-3 descriptor tag.
func (Eac3Desc) Tag() uint8 { return DescriptorTagEAC3 }

// StreamInfo describes one elementary stream listed in a PMT.
type StreamInfo struct {
	PID        uint16
	StreamType StreamType
	Index      int // 0-based position within this PMT
	Descs      []StreamDesc
}

// Pmt is a decoded Program Map Table.
type Pmt struct {
	ProgramNumber uint16
	Version       uint8
	CurrentNext   bool
	PCRPID        uint16
	Streams       []StreamInfo
}

// Equal reports whether two PMTs are structurally identical.
func (p *Pmt) Equal(o *Pmt) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.ProgramNumber != o.ProgramNumber ||
		p.Version != o.Version ||
		p.CurrentNext != o.CurrentNext ||
		p.PCRPID != o.PCRPID ||
		len(p.Streams) != len(o.Streams) {
		return false
	}
	for i := range p.Streams {
		a, b := p.Streams[i], o.Streams[i]
		if a.PID != b.PID || a.StreamType != b.StreamType || a.Index != b.Index {
			return false
		}
		if len(a.Descs) != len(b.Descs) {
			return false
		}
		for j := range a.Descs {
			if !descEqual(a.Descs[j], b.Descs[j]) {
				return false
			}
		}
	}
	return true
}

func descEqual(a, b StreamDesc) bool {
	if a.Tag() != b.Tag() {
		return false
	}
	switch av := a.(type) {
	case RegistrationDesc:
		bv, ok := b.(RegistrationDesc)
		return ok && av == bv
	case MetadataDesc:
		bv, ok := b.(MetadataDesc)
		if !ok {
			return false
		}
		if (av.AppFormatID == nil) != (bv.AppFormatID == nil) {
			return false
		}
		return av.AppFormatID == nil || *av.AppFormatID == *bv.AppFormatID
	case Ac3Desc:
		_, ok := b.(Ac3Desc)
		return ok
	case Eac3Desc:
		_, ok := b.(Eac3Desc)
		return ok
	default:
		return false
	}
}

// Clone returns a deep copy, safe to retain independently of the original.
func (p *Pmt) Clone() *Pmt {
	if p == nil {
		return nil
	}
	c := *p
	if p.Streams != nil {
		c.Streams = make([]StreamInfo, len(p.Streams))
		for i, s := range p.Streams {
			sc := s
			if s.Descs != nil {
				sc.Descs = append([]StreamDesc(nil), s.Descs...)
			}
			c.Streams[i] = sc
		}
	}
	return &c
}

// Program is the Demultiplexer's view of one program tracked from the PAT.
type Program struct {
	ProgramInfo ProgramInfo
	Pmt         *Pmt
	Enabled     bool
}

// Event is emitted by the Demultiplexer as it observes the transport stream.
// Exactly one of Pat, Pmt, or Pes is set.
type Event struct {
	Pat *PatEvent
	Pmt *PmtEvent
	Pes *PesEvent
}

// PatEvent reports a PAT change; Old is nil the first time a PAT is seen.
type PatEvent struct {
	New *Pat
	Old *Pat
}

// PmtEvent reports a PMT change; Old is nil the first time a program's
// PMT is seen.
type PmtEvent struct {
	New *Pmt
	Old *Pmt
}

// PesEvent is a placeholder marking that a PES packet was routed on a
// known elementary-stream PID. PES payload decoding is out of scope for
// this package.
type PesEvent struct {
	PID uint16
}

// Stats holds monotonically increasing counters observable after every
// Push call that caused them to change.
type Stats struct {
	UnsynchronizedBytes   uint64
	MalformedTsPackets    uint64
	DuplicateTsPackets    uint64
	IgnoredTsPackets      uint64
	ContinuityCounterErrs uint64
	InvalidPsi            uint64
	InvalidPmt            uint64
	PsiCrcErrors          uint64
	SkippedUnstartedPsi   uint64
}
