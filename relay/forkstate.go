package relay

// ForkState is a candidate alternative chain branching off a known
// main-chain ancestor. Unlike MainState's ring, it is a plain linear
// buffer — a fork is abandoned and recreated rather than wrapped once it
// would exceed PruningFactor entries, matching state.rs's ForkState.
type ForkState struct {
	Initialized      bool
	ForkID           uint64
	Submitter        string // opaque caller identity; a fork is keyed by (ForkID, Submitter)
	StartHeight      uint32 // height of the latest common ancestor
	Length           uint32 // number of appended headers
	TipCommitHash    [32]byte
	TipBlockHash     [32]byte
	BlockCommitments [PruningFactor][32]byte
}

// StoreBlockCommitment appends commitment at the fork's current length and
// reports false without writing if the fork is already full — callers
// must abandon a full fork rather than continue appending to it.
func (f *ForkState) StoreBlockCommitment(commitment [32]byte) bool {
	if f.Length >= PruningFactor {
		return false
	}
	f.BlockCommitments[f.Length] = commitment
	f.Length++
	return true
}

// HeightAt returns the main-chain-equivalent height for the header at fork
// position i (0-indexed), i.e. StartHeight + i + 1.
func (f *ForkState) HeightAt(i uint32) uint32 {
	return f.StartHeight + i + 1
}
