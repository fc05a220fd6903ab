package transmux

import "sort"

const (
	pidPAT  uint16 = 0x0000
	pidNull uint16 = 0x1FFF
)

// pidRole classifies what a Demultiplexer does with packets on a PID.
type pidRole int

const (
	roleNone pidRole = iota
	rolePat
	rolePmt
	roleElementary
)

type pidState struct {
	role          pidRole
	programNumber uint16 // valid when role == rolePmt
	psi           *psiReassembler
	continuity    pidContinuity
}

// Demultiplexer incrementally parses an MPEG-2 Transport Stream, routing
// packets by PID and emitting Events for PAT/PMT changes and elementary
// stream activity. It performs no I/O, starts no goroutines, and is not
// safe for concurrent use — callers serialize Push/PollEvent themselves,
// same as every other type in this package.
type Demultiplexer struct {
	framer *transportFramer
	pids   map[uint16]*pidState

	pat      *Pat
	programs map[uint16]*Program // keyed by program_number

	events []Event
	stats  Stats
}

// NewDemultiplexer creates a Demultiplexer ready to accept Push calls.
func NewDemultiplexer() *Demultiplexer {
	d := &Demultiplexer{
		pids:     make(map[uint16]*pidState),
		programs: make(map[uint16]*Program),
	}
	d.framer = newTransportFramer(d.handlePacket, &d.stats.UnsynchronizedBytes, &d.stats.MalformedTsPackets)
	d.pids[pidPAT] = &pidState{role: rolePat, psi: newPsiReassembler(tableIDPat, d.handlePatSection)}
	return d
}

// Push feeds raw transport-stream bytes into the demultiplexer. Events
// produced as a result are queued and retrieved with PollEvent.
func (d *Demultiplexer) Push(data []byte) {
	d.framer.push(data)
}

// PollEvent returns the next queued Event, or (nil, false) if none is
// available yet.
func (d *Demultiplexer) PollEvent() (Event, bool) {
	if len(d.events) == 0 {
		return Event{}, false
	}
	e := d.events[0]
	d.events = d.events[1:]
	return e, true
}

// Programs returns the demultiplexer's current view of every program
// seen in the most recent PAT. The returned slice is a snapshot; mutating
// it does not affect the Demultiplexer.
func (d *Demultiplexer) Programs() []Program {
	out := make([]Program, 0, len(d.programs))
	for _, p := range d.programs {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProgramInfo.Number < out[j].ProgramInfo.Number
	})
	return out
}

// EnableProgram arranges for the named program's PMT PID to be tracked,
// so that its PMT and elementary-stream PIDs start producing events. It
// returns ErrInvalidProgramNumber if the most recent PAT does not list that
// program number.
func (d *Demultiplexer) EnableProgram(programNumber uint16) error {
	prog, ok := d.programs[programNumber]
	if !ok {
		return ErrInvalidProgramNumber
	}
	if prog.Enabled {
		return nil
	}
	prog.Enabled = true
	programNumberCopy := programNumber
	d.pids[prog.ProgramInfo.PID] = &pidState{
		role:          rolePmt,
		programNumber: programNumberCopy,
		psi:           newPsiReassembler(tableIDPmt, func(section []byte) { d.handlePmtSection(programNumberCopy, section) }),
	}
	return nil
}

// StatsSnapshot returns a copy of the counters accumulated so far.
func (d *Demultiplexer) StatsSnapshot() Stats {
	return d.stats
}

func (d *Demultiplexer) handlePacket(pkt *TsPacket) {
	if pkt.PID == pidNull {
		d.stats.IgnoredTsPackets++
		return
	}

	state, ok := d.pids[pkt.PID]
	if !ok {
		d.stats.IgnoredTsPackets++
		return
	}

	duplicate, reset := state.continuity.observe(pkt)
	if duplicate {
		d.stats.DuplicateTsPackets++
		return
	}
	if reset {
		d.stats.ContinuityCounterErrs++
		if state.psi != nil {
			state.psi.reset()
		}
	}

	switch state.role {
	case rolePat, rolePmt:
		d.pushPsi(state, pkt)
	case roleElementary:
		d.events = append(d.events, Event{Pes: &PesEvent{PID: pkt.PID}})
	}
}

func (d *Demultiplexer) pushPsi(state *pidState, pkt *TsPacket) {
	skippedUnstarted, crcError, ok := state.psi.push(pkt.Payload, pkt.PayloadStart)
	if skippedUnstarted {
		d.stats.SkippedUnstartedPsi++
		return
	}
	if !ok {
		if crcError {
			d.stats.PsiCrcErrors++
		}
		if state.role == rolePmt {
			d.stats.InvalidPmt++
		} else {
			d.stats.InvalidPsi++
		}
		state.psi.reset()
	}
}

func (d *Demultiplexer) handlePatSection(section []byte) {
	pat, err := parsePatSection(section)
	if err != nil {
		d.stats.InvalidPsi++
		return
	}

	if d.pat != nil && d.pat.Equal(pat) {
		return
	}
	old := d.pat
	d.pat = pat
	d.events = append(d.events, Event{Pat: &PatEvent{New: pat.Clone(), Old: old}})

	d.applyPat(pat)
}

// applyPat reconciles tracked programs against a new PAT: programs whose
// PID changed, or that are no longer listed at all, stop being tracked
// and have their PIDs (PMT and every elementary stream PID from their
// last known PMT) released; newly listed programs start being tracked,
// disabled, with no PMT yet.
func (d *Demultiplexer) applyPat(pat *Pat) {
	valid := make(map[uint16]uint16, len(pat.Programs)) // program_number -> pid
	for _, p := range pat.Programs {
		valid[p.Number] = p.PID
	}

	for num, prog := range d.programs {
		newPID, stillListed := valid[num]
		if stillListed && newPID == prog.ProgramInfo.PID {
			continue
		}
		delete(d.pids, prog.ProgramInfo.PID)
		if prog.Pmt != nil {
			for _, s := range prog.Pmt.Streams {
				delete(d.pids, s.PID)
			}
		}
		delete(d.programs, num)
	}

	for _, p := range pat.Programs {
		if _, tracked := d.programs[p.Number]; tracked {
			continue
		}
		d.programs[p.Number] = &Program{ProgramInfo: p}
	}
}

func (d *Demultiplexer) handlePmtSection(programNumber uint16, section []byte) {
	pmt, err := parsePmtSection(section)
	if err != nil {
		d.stats.InvalidPmt++
		return
	}

	prog, ok := d.programs[programNumber]
	if !ok {
		// The program was torn down (e.g. by a new PAT) between the PMT
		// PID being registered and this section completing.
		return
	}

	if prog.Pmt != nil && prog.Pmt.Equal(pmt) {
		return
	}
	old := prog.Pmt
	prog.Pmt = pmt
	d.events = append(d.events, Event{Pmt: &PmtEvent{New: pmt.Clone(), Old: old}})

	d.applyPmt(prog, pmt, old)
}

// applyPmt registers newly listed elementary-stream PIDs and releases
// ones dropped by the new PMT.
func (d *Demultiplexer) applyPmt(prog *Program, pmt, old *Pmt) {
	if old != nil {
		keep := make(map[uint16]bool, len(pmt.Streams))
		for _, s := range pmt.Streams {
			keep[s.PID] = true
		}
		for _, s := range old.Streams {
			if !keep[s.PID] {
				delete(d.pids, s.PID)
			}
		}
	}
	for _, s := range pmt.Streams {
		if _, exists := d.pids[s.PID]; !exists {
			d.pids[s.PID] = &pidState{role: roleElementary}
		}
	}
}
