// Command transmuxcat demultiplexes an MPEG-2 Transport Stream file (or
// stdin) and logs the PAT/PMT/PES events it observes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dcaiafa/transmux"
)

func main() {
	var (
		path        = flag.String("in", "-", "path to a transport stream file, or - for stdin")
		enablePrg   = flag.Uint("enable-program", 0, "program_number to enable for PMT/elementary-stream events (0 disables this)")
		debug       = flag.Bool("debug", false, "enable debug logging")
		readBufSize = flag.Int("read-buf", 64*1024, "read buffer size in bytes")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*path, uint16(*enablePrg), *readBufSize); err != nil {
		slog.Error("transmuxcat failed", "error", err)
		os.Exit(1)
	}
}

func run(path string, enableProgram uint16, readBufSize int) error {
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	d := transmux.NewDemultiplexer()
	buf := make([]byte, readBufSize)
	enabled := false

	for {
		n, err := in.Read(buf)
		if n > 0 {
			d.Push(buf[:n])
			drainEvents(d, enableProgram, &enabled)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read input: %w", err)
		}
	}

	stats := d.StatsSnapshot()
	slog.Info("done",
		"unsynchronized_bytes", stats.UnsynchronizedBytes,
		"malformed_ts_packets", stats.MalformedTsPackets,
		"duplicate_ts_packets", stats.DuplicateTsPackets,
		"ignored_ts_packets", stats.IgnoredTsPackets,
		"continuity_counter_errors", stats.ContinuityCounterErrs,
		"invalid_psi", stats.InvalidPsi,
		"invalid_pmt", stats.InvalidPmt,
		"psi_crc_errors", stats.PsiCrcErrors,
	)
	return nil
}

func drainEvents(d *transmux.Demultiplexer, enableProgram uint16, enabled *bool) {
	for {
		ev, ok := d.PollEvent()
		if !ok {
			return
		}
		switch {
		case ev.Pat != nil:
			slog.Info("PAT", "programs", len(ev.Pat.New.Programs))
			if !*enabled && enableProgram != 0 {
				if err := d.EnableProgram(enableProgram); err == nil {
					*enabled = true
				}
			}
		case ev.Pmt != nil:
			slog.Info("PMT",
				"program_number", ev.Pmt.New.ProgramNumber,
				"streams", len(ev.Pmt.New.Streams),
			)
			for _, s := range ev.Pmt.New.Streams {
				slog.Debug("stream", "pid", s.PID, "type", s.StreamType.String())
			}
		case ev.Pes != nil:
			slog.Debug("PES", "pid", ev.Pes.PID)
		}
	}
}
