// Package transmux implements an incremental demultiplexer for MPEG-2
// Transport Streams (ISO/IEC 13818-1). It consumes an arbitrary,
// potentially unbounded byte stream and produces a sequence of structured
// events describing the programs, elementary streams, and packets carried
// by the transport.
//
// The pipeline is layered: a resynchronizing framer recovers 188-byte
// packet boundaries from the raw byte stream, a packet decoder extracts
// header/adaptation-field/PCR fields, a per-PID continuity controller
// detects duplicates and discontinuities, and a PSI section reassembler
// feeds PAT/PMT parsers that drive the Demultiplexer's program lifecycle.
//
// The core is push-driven: callers call [Demultiplexer.Push] with bytes
// and drain results with [Demultiplexer.PollEvent]. There is no I/O, no
// concurrency, and no logging inside this package.
package transmux
