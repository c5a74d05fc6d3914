package relay

import "testing"

func TestForkStoreAppendsAndTracksLength(t *testing.T) {
	f := &ForkState{StartHeight: 100}
	var d1, d2 [32]byte
	d1[0] = 1
	d2[0] = 2

	if !f.StoreBlockCommitment(d1) {
		t.Fatal("expected first store to succeed")
	}
	if !f.StoreBlockCommitment(d2) {
		t.Fatal("expected second store to succeed")
	}
	if f.Length != 2 {
		t.Fatalf("Length = %d, want 2", f.Length)
	}
	if f.BlockCommitments[0] != d1 || f.BlockCommitments[1] != d2 {
		t.Fatal("commitments not stored in append order")
	}
}

func TestForkStoreFailsWhenFull(t *testing.T) {
	f := &ForkState{Length: PruningFactor}
	var d [32]byte
	if f.StoreBlockCommitment(d) {
		t.Fatal("expected store to fail once fork buffer is full")
	}
}

func TestForkHeightAtIsOffsetFromStartHeight(t *testing.T) {
	f := &ForkState{StartHeight: 500}
	if got := f.HeightAt(0); got != 501 {
		t.Fatalf("HeightAt(0) = %d, want 501", got)
	}
	if got := f.HeightAt(4); got != 505 {
		t.Fatalf("HeightAt(4) = %d, want 505", got)
	}
}
