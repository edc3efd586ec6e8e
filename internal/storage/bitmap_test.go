package storage

import "testing"

func TestSetBitAndGetBit(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	prior, err := ks.SetBit("k", 7, 1)
	if err != nil || prior != 0 {
		t.Fatalf("expected prior bit 0, got %d err=%v", prior, err)
	}

	bit, err := ks.GetBit("k", 7)
	if err != nil || bit != 1 {
		t.Fatalf("expected bit 1 at offset 7, got %d", bit)
	}

	// offset 7 is the last (LSB-most, per MSB-first numbering) bit of byte 0
	val, _, _ := ks.Get("k")
	if len(val) != 1 || val[0] != 0x01 {
		t.Fatalf("expected single byte 0x01, got %v", val)
	}

	if bit, _ := ks.GetBit("k", 0); bit != 0 {
		t.Fatalf("expected bit 0 at offset 0, got %d", bit)
	}

	prior, _ = ks.SetBit("k", 7, 0)
	if prior != 1 {
		t.Fatalf("expected prior bit 1, got %d", prior)
	}
}

func TestGetBitOnMissingKeyIsZero(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	bit, err := ks.GetBit("missing", 100)
	if err != nil || bit != 0 {
		t.Fatalf("expected 0 for missing key, got %d err=%v", bit, err)
	}
}

func TestBitCountWholeAndRange(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.Set("k", []byte("foobar"), SetOptions{}) //nolint:errcheck

	total, err := ks.BitCount("k", false, 0, 0)
	if err != nil || total != 26 {
		t.Fatalf("expected 26 set bits in \"foobar\", got %d", total)
	}

	partial, _ := ks.BitCount("k", true, 1, 1)
	if partial != 6 {
		t.Fatalf("expected 6 set bits in byte 1 (\"o\"), got %d", partial)
	}
}

func TestBitOpAnd(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.Set("a", []byte{0xFF, 0x0F}, SetOptions{}) //nolint:errcheck
	ks.Set("b", []byte{0x0F}, SetOptions{})       //nolint:errcheck

	n, err := ks.BitOp("AND", "dest", []string{"a", "b"})
	if err != nil || n != 2 {
		t.Fatalf("expected result length 2, got %d err=%v", n, err)
	}
	val, _, _ := ks.Get("dest")
	if val[0] != 0x0F || val[1] != 0x00 {
		t.Fatalf("unexpected AND result: %v", val)
	}
}

func TestBitPosFindsFirstSetBit(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.Set("k", []byte{0x00, 0x0F}, SetOptions{}) //nolint:errcheck

	pos, err := ks.BitPos("k", 1, false, 0, 0)
	if err != nil || pos != 12 {
		t.Fatalf("expected first set bit at offset 12, got %d", pos)
	}
}
