package netaddr

import "testing"

func TestFiveTuple_HashDeterministic(t *testing.T) {
	ft := FiveTuple{
		SrcIP: MustParseIP("10.0.0.1"), DstIP: MustParseIP("10.0.0.2"),
		SrcPort: 4001, DstPort: 80, Protocol: 6,
	}
	h1 := ft.Hash()
	h2 := ft.Hash()
	if h1 != h2 {
		t.Errorf("Hash() not stable across calls: %d != %d", h1, h2)
	}
}

func TestFiveTuple_FlowletFieldChangesHash(t *testing.T) {
	base := FiveTuple{
		SrcIP: MustParseIP("10.0.0.1"), DstIP: MustParseIP("10.0.0.2"),
		SrcPort: 4001, DstPort: 80, Protocol: 6,
	}
	perturbed := base
	perturbed.FlowletField = 1

	if base.Hash() == perturbed.Hash() {
		t.Error("perturbing FlowletField should change the hash")
	}
}

func TestFiveTuple_SelectIndexStable(t *testing.T) {
	ft := FiveTuple{SrcIP: 1, DstIP: 2, SrcPort: 3, DstPort: 4, Protocol: 17}
	idx1 := ft.SelectIndex(4)
	idx2 := ft.SelectIndex(4)
	if idx1 != idx2 {
		t.Errorf("SelectIndex not stable: %d != %d", idx1, idx2)
	}
	if idx1 < 0 || idx1 >= 4 {
		t.Errorf("SelectIndex out of range: %d", idx1)
	}
}

func TestFiveTuple_SelectIndexPanicsOnEmpty(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic with zero candidates")
		}
	}()
	FiveTuple{}.SelectIndex(0)
}
