package transmux

import "testing"

// wrapSection builds a full PSI section (table_id + section_length +
// body + CRC) prefixed with a zero pointer_field, as it would appear in
// a packet payload starting a new section.
func wrapSection(tableID uint8, body []byte) []byte {
	length := len(body) + 4
	full := []byte{tableID, 0xB0 | byte(length>>8)&0x0F, byte(length)}
	full = append(full, body...)
	crc := crc32MPEG2(full)
	full = append(full, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return append([]byte{0x00}, full...)
}

func patSectionBody(programs []ProgramInfo) []byte {
	body := []byte{0x00, 0x01, 0xC1, 0x00, 0x00}
	for _, p := range programs {
		body = append(body, byte(p.Number>>8), byte(p.Number), 0xE0|byte(p.PID>>8)&0x1F, byte(p.PID))
	}
	return body
}

func pushSection(d *Demultiplexer, pid uint16, cc uint8, payload []byte) {
	d.Push(makePacket(pid, cc, true, payload))
}

func TestDemultiplexer_PatEvent(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	programs := []ProgramInfo{{Number: 1, PID: 0x100}}
	pushSection(d, pidPAT, 0, wrapSection(tableIDPat, patSectionBody(programs)))

	ev, ok := d.PollEvent()
	if !ok {
		t.Fatal("expected a PAT event")
	}
	if ev.Pat == nil {
		t.Fatal("expected Event.Pat to be set")
	}
	if ev.Pat.Old != nil {
		t.Error("first PAT event should have Old == nil")
	}
	if len(ev.Pat.New.Programs) != 1 || ev.Pat.New.Programs[0].Number != 1 {
		t.Errorf("Programs = %v", ev.Pat.New.Programs)
	}
	if _, ok := d.PollEvent(); ok {
		t.Error("expected no further events")
	}

	progs := d.Programs()
	if len(progs) != 1 || progs[0].Enabled {
		t.Errorf("Programs() = %+v", progs)
	}
}

func TestDemultiplexer_ProgramsSortedByNumber(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	programs := []ProgramInfo{
		{Number: 30, PID: 0x300},
		{Number: 10, PID: 0x100},
		{Number: 20, PID: 0x200},
	}
	pushSection(d, pidPAT, 0, wrapSection(tableIDPat, patSectionBody(programs)))
	d.PollEvent()

	progs := d.Programs()
	if len(progs) != 3 {
		t.Fatalf("Programs() = %+v, want 3 entries", progs)
	}
	for i, want := range []uint16{10, 20, 30} {
		if progs[i].ProgramInfo.Number != want {
			t.Errorf("Programs()[%d].Number = %d, want %d", i, progs[i].ProgramInfo.Number, want)
		}
	}
}

func TestDemultiplexer_DuplicatePatSuppressed(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	programs := []ProgramInfo{{Number: 1, PID: 0x100}}
	section := wrapSection(tableIDPat, patSectionBody(programs))

	pushSection(d, pidPAT, 0, section)
	d.PollEvent()
	pushSection(d, pidPAT, 1, section)

	if _, ok := d.PollEvent(); ok {
		t.Error("identical PAT must not produce a second event")
	}
}

func TestDemultiplexer_EnableProgramAndPmtEvent(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	programs := []ProgramInfo{{Number: 1, PID: 0x100}}
	pushSection(d, pidPAT, 0, wrapSection(tableIDPat, patSectionBody(programs)))
	d.PollEvent()

	if err := d.EnableProgram(1); err != nil {
		t.Fatal(err)
	}

	streams := []struct {
		streamType uint8
		pid        uint16
		descs      []byte
	}{{streamType: 0x1B, pid: 0x200, descs: nil}}
	pmtBody := buildPmtSection(1, 0x200, streams)
	pushSection(d, 0x100, 0, wrapSection(tableIDPmt, pmtBody))

	ev, ok := d.PollEvent()
	if !ok || ev.Pmt == nil {
		t.Fatal("expected a PMT event")
	}
	if ev.Pmt.Old != nil {
		t.Error("first PMT event should have Old == nil")
	}
	if len(ev.Pmt.New.Streams) != 1 || ev.Pmt.New.Streams[0].PID != 0x200 {
		t.Errorf("Streams = %v", ev.Pmt.New.Streams)
	}

	// The PMT's elementary stream PID must now be routed and produce Pes events.
	d.Push(makePacket(0x200, 0, false, []byte{0xDE, 0xAD}))
	ev, ok = d.PollEvent()
	if !ok || ev.Pes == nil || ev.Pes.PID != 0x200 {
		t.Fatalf("expected a Pes event for PID 0x200, got %+v ok=%v", ev, ok)
	}
}

func TestDemultiplexer_EnableProgram_InvalidNumber(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	if err := d.EnableProgram(99); err != ErrInvalidProgramNumber {
		t.Errorf("err = %v, want ErrInvalidProgramNumber", err)
	}
}

func TestDemultiplexer_ProgramDroppedWhenAbsentFromNewPat(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	pushSection(d, pidPAT, 0, wrapSection(tableIDPat, patSectionBody([]ProgramInfo{{Number: 1, PID: 0x100}})))
	d.PollEvent()

	// A new PAT that no longer lists program 1 at all (not just a PID
	// change) must still tear the program down.
	pushSection(d, pidPAT, 1, wrapSection(tableIDPat, patSectionBody([]ProgramInfo{{Number: 2, PID: 0x300}})))
	d.PollEvent()

	progs := d.Programs()
	if len(progs) != 1 || progs[0].ProgramInfo.Number != 2 {
		t.Errorf("Programs() = %+v, want only program 2", progs)
	}
	if err := d.EnableProgram(1); err != ErrInvalidProgramNumber {
		t.Error("program 1 should no longer be trackable")
	}
}

func TestDemultiplexer_NullPidIgnored(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	d.Push(makePacket(pidNull, 0, false, []byte{0x01}))
	stats := d.StatsSnapshot()
	if stats.IgnoredTsPackets != 1 {
		t.Errorf("IgnoredTsPackets = %d, want 1", stats.IgnoredTsPackets)
	}
	if _, ok := d.PollEvent(); ok {
		t.Error("null PID must never produce events")
	}
}

func TestDemultiplexer_UnknownPidIgnored(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	d.Push(makePacket(0x555, 0, false, []byte{0x01}))
	if got := d.StatsSnapshot().IgnoredTsPackets; got != 1 {
		t.Errorf("IgnoredTsPackets = %d, want 1", got)
	}
}

func TestDemultiplexer_DuplicateTsPacketCounted(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	d.Push(makePacket(0x555, 0, false, []byte{0x01}))
	d.Push(makePacket(0x555, 0, false, []byte{0x01})) // never tracked, still ignored not duplicate

	section := wrapSection(tableIDPat, patSectionBody([]ProgramInfo{{Number: 1, PID: 0x100}}))
	pushSection(d, pidPAT, 0, section)
	d.PollEvent()
	// Re-deliver the same PAT packet with the same continuity counter: a
	// true wire duplicate.
	d.Push(makePacket(pidPAT, 0, true, section))

	if got := d.StatsSnapshot().DuplicateTsPackets; got != 1 {
		t.Errorf("DuplicateTsPackets = %d, want 1", got)
	}
}

func TestDemultiplexer_InvalidPatCounted(t *testing.T) {
	t.Parallel()
	d := NewDemultiplexer()
	// A section too short to be a valid PAT (less than 5 bytes of body).
	pushSection(d, pidPAT, 0, wrapSection(tableIDPat, []byte{0x00, 0x01}))
	if got := d.StatsSnapshot().InvalidPsi; got != 1 {
		t.Errorf("InvalidPsi = %d, want 1", got)
	}
	if _, ok := d.PollEvent(); ok {
		t.Error("an invalid PAT must not produce an event")
	}
}
