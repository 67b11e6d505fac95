package zip

import (
	"bytes"
	"testing"
	"time"
)

func TestTimestampExtraAllPresent(t *testing.T) {
	mod := time.Unix(1600000000, 0)
	acc := time.Unix(1600000100, 0)
	cre := time.Unix(1600000200, 0)

	local, central := timestampExtra(mod, acc, cre)
	if local.ID != extTimeExtraID || central.ID != extTimeExtraID {
		t.Fatalf("ids = %04x/%04x", local.ID, central.ID)
	}
	if len(local.Data) != 13 {
		t.Fatalf("local payload = %d bytes, want 13", len(local.Data))
	}
	if len(central.Data) != 5 {
		t.Fatalf("central payload = %d bytes, want 5", len(central.Data))
	}
	if local.Data[0] != modifiedBit|accessedBit|createdBit {
		t.Errorf("local flags = %02x", local.Data[0])
	}
	if central.Data[0] != local.Data[0] {
		t.Errorf("central flags = %02x, want same as local", central.Data[0])
	}

	b := readBuf(local.Data[1:])
	if v := b.uint32(); v != uint32(mod.Unix()) {
		t.Errorf("mtime = %d", v)
	}
	if v := b.uint32(); v != uint32(acc.Unix()) {
		t.Errorf("atime = %d", v)
	}
	if v := b.uint32(); v != uint32(cre.Unix()) {
		t.Errorf("ctime = %d", v)
	}

	// Central variant carries only the modification time.
	b = readBuf(central.Data[1:])
	if v := b.uint32(); v != uint32(mod.Unix()) {
		t.Errorf("central mtime = %d", v)
	}
}

func TestTimestampExtraPartial(t *testing.T) {
	local, central := timestampExtra(time.Time{}, time.Unix(1234, 0), time.Time{})
	if local.Data[0] != accessedBit {
		t.Errorf("flags = %02x, want accessed only", local.Data[0])
	}
	if len(local.Data) != 5 {
		t.Errorf("local payload = %d bytes, want 5", len(local.Data))
	}
	if len(central.Data) != 1 {
		t.Errorf("central payload = %d bytes, want flag byte only", len(central.Data))
	}
}

func TestZip64ExtraOrder(t *testing.T) {
	f := zip64Extra(1, 2, 3)
	if f.ID != zip64ExtraID {
		t.Fatalf("id = %04x", f.ID)
	}
	if len(f.Data) != 24 {
		t.Fatalf("payload = %d bytes, want 24", len(f.Data))
	}
	b := readBuf(f.Data)
	for want := uint64(1); want <= 3; want++ {
		if v := b.uint64(); v != want {
			t.Errorf("value = %d, want %d", v, want)
		}
	}
}

func TestPackExtra(t *testing.T) {
	packed := packExtra([]ExtraField{
		{ID: 0x0001, Data: []byte{0xAA, 0xBB}},
		{ID: 0x5455, Data: []byte{0x01}},
	})
	want := []byte{0x01, 0x00, 0x02, 0x00, 0xAA, 0xBB, 0x55, 0x54, 0x01, 0x00, 0x01}
	if !bytes.Equal(packed, want) {
		t.Errorf("packed = % x, want % x", packed, want)
	}
	if packExtra(nil) != nil {
		t.Error("packing no fields should produce nil")
	}
}
