package memsys

// VerificationLevel trades integrity-check cost against coverage for the
// running checksum: Full recomputes on every mutation, Sampling only every
// verificationSamplePeriod-th, Off never recomputes after creation. The
// choice never changes Wasm-visible behavior — only how current Checksum
// and VerifyChecksum are once a fault has occurred (spec.md §4.2's
// determinism boundary: this is diagnostic tooling, not execution).
type VerificationLevel int

const (
	// VerificationFull recomputes the checksum after every write, fill,
	// copy, grow, and atomic store. The default, and what every memory
	// used unconditionally before VerificationLevel existed.
	VerificationFull VerificationLevel = iota
	// VerificationSampling recomputes every verificationSamplePeriod-th
	// mutation, trading detection latency for throughput on hot loops.
	VerificationSampling
	// VerificationOff never recomputes after creation. Checksum and
	// VerifyChecksum still work, but report only the initial state.
	VerificationOff
)

// verificationSamplePeriod is how many mutations VerificationSampling lets
// pass between checksum recomputations.
const verificationSamplePeriod = 64

func (l VerificationLevel) String() string {
	switch l {
	case VerificationFull:
		return "full"
	case VerificationSampling:
		return "sampling"
	case VerificationOff:
		return "off"
	default:
		return "unknown"
	}
}

// maybeRecomputeChecksumLocked applies m.verification's policy. Caller
// must hold m.mu.
func (m *Memory) maybeRecomputeChecksumLocked() {
	switch m.verification {
	case VerificationOff:
		return
	case VerificationSampling:
		m.mutationCount++
		if m.mutationCount%verificationSamplePeriod != 0 {
			return
		}
	}
	m.recomputeChecksumLocked()
}
