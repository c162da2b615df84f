package drift

import "testing"

func TestSampleDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for tick := uint64(0); tick < 100; tick++ {
		if a.Sample(tick, 0) != b.Sample(tick, 0) {
			t.Fatalf("tick %d: same seed, different samples", tick)
		}
	}
}

func TestSampleRange(t *testing.T) {
	n := New(7)
	for tick := uint64(0); tick < 500; tick++ {
		for channel := 0; channel < 3; channel++ {
			v := n.Sample(tick, channel)
			if v < -1 || v > 1 {
				t.Fatalf("sample(%d,%d) = %v out of [-1,1]", tick, channel, v)
			}
		}
	}
}

func TestSampleSmooth(t *testing.T) {
	n := New(11)
	for tick := uint64(0); tick < 200; tick++ {
		step := n.Sample(tick+1, 0) - n.Sample(tick, 0)
		if step > 0.5 || step < -0.5 {
			t.Fatalf("tick %d: step %v too large for smooth noise", tick, step)
		}
	}
}

func TestRandomSeedNonNegative(t *testing.T) {
	for i := 0; i < 10; i++ {
		if RandomSeed() < 0 {
			t.Fatalf("negative seed")
		}
	}
}
