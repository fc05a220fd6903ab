package transmux

// transportFramer turns a byte stream into a sequence of 188-byte
// transport packets, resynchronizing after corruption per ISO/IEC
// 13818-1 2.4.3.2. It owns no I/O: bytes arrive via push and decoded
// packets are handed to a callback one at a time.
type transportFramer struct {
	queue         *byteQueue
	synchronized  bool
	onPacket      func(*TsPacket)
	unsyncedBytes *uint64
	malformed     *uint64
}

func newTransportFramer(onPacket func(*TsPacket), unsyncedBytes, malformed *uint64) *transportFramer {
	return &transportFramer{
		queue:         newByteQueue(),
		onPacket:      onPacket,
		unsyncedBytes: unsyncedBytes,
		malformed:     malformed,
	}
}

// push feeds data into the framer, decoding and emitting every complete
// packet it can find.
func (f *transportFramer) push(data []byte) {
	f.queue.write(data)
	for f.queue.len() >= packetSize {
		if !f.synchronized {
			f.synchronize()
			continue
		}
		pkt, err := decodePacket(f.queue.view()[:packetSize], f.queue.consumed())
		if err != nil {
			// Resynchronize starting one byte later so the same
			// malformed packet isn't retried forever.
			f.queue.pop(1)
			f.synchronized = false
			*f.malformed++
			*f.unsyncedBytes++
			continue
		}
		f.onPacket(pkt)
		f.queue.pop(packetSize)
	}
}

// synchronize locates the next position at which the sync byte appears at
// up to 4 consecutive packet-spaced offsets, discarding everything before
// it; a run cut short by the end of the buffered data is accepted. If no
// such position exists in the buffered data, the entire buffer is
// discarded; bytes dribbling in one at a time can never accumulate
// unboundedly while unsynchronized.
func (f *transportFramer) synchronize() {
	f.synchronized = false
	idx, ok := f.findSyncWord()
	if !ok {
		*f.unsyncedBytes += uint64(f.queue.len())
		f.queue.popAll()
		return
	}
	*f.unsyncedBytes += uint64(idx)
	f.queue.pop(idx)
	f.synchronized = true
}

func (f *transportFramer) findSyncWord() (int, bool) {
	buf := f.queue.view()
	for i := range buf {
		isHeader := false
		for j := 0; j < 4; j++ {
			idx := i + j*packetSize
			if idx >= len(buf) {
				break
			}
			if buf[idx] != syncByte {
				isHeader = false
				break
			}
			isHeader = true
		}
		if isHeader {
			return i, true
		}
	}
	return 0, false
}
