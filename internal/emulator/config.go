package emulator

// Config holds host-tunable knobs that shape emulator behavior without
// being part of the core hardware state itself: things a frontend decides
// once at startup rather than state the hardware itself owns.
type Config struct {
	// Trace logs each CPU instruction retired, for debugging opcode
	// sequencing issues against a known-good trace.
	Trace bool

	// MaxSoundBufferFrames is a sound-buffer threshold, in stereo frames, for
	// a host to pass to RunUntilEvent as maxSamples. RunUntilEvent does not
	// read it; it takes its threshold only from that argument.
	MaxSoundBufferFrames int
}

// DefaultConfig returns the Config used by New when none is supplied.
func DefaultConfig() Config {
	return Config{
		MaxSoundBufferFrames: 1024,
	}
}
