package model

import (
	"encoding/json"
	"testing"
)

func TestParseDeviceIdentity(t *testing.T) {
	id, err := ParseDeviceIdentity("0x04b8", "0202", "TM-T88II")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.VendorID != 0x04b8 || id.ProductID != 0x0202 {
		t.Fatalf("got %04x:%04x", id.VendorID, id.ProductID)
	}
	if id.VendorHex != "0x04b8" || id.ProductHex != "0202" {
		t.Fatalf("configured spellings not preserved: %+v", id)
	}
	if id.String() != "04b8:0202" {
		t.Fatalf("String() = %q", id.String())
	}
}

func TestParseDeviceIdentityRejectsBadIDs(t *testing.T) {
	for _, tc := range []struct{ vendor, product string }{
		{"", "0x0202"},
		{"0x", "0x0202"},
		{"0xzz", "0x0202"},
		{"0x04b8", "0x10000"},
	} {
		if _, err := ParseDeviceIdentity(tc.vendor, tc.product, ""); err == nil {
			t.Errorf("ParseDeviceIdentity(%q, %q) should fail", tc.vendor, tc.product)
		}
	}
}

func TestStatusEventWireFormat(t *testing.T) {
	b, err := json.Marshal(NewStatusEvent(StatusNoPaper, "out of paper"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"error":"no_paper","message":"out of paper"}` {
		t.Fatalf("unexpected body %s", b)
	}
}

func TestPaperLevelStatusKind(t *testing.T) {
	cases := map[PaperLevel]StatusKind{
		PaperOK:  StatusPaperOK,
		PaperLow: StatusLowPaper,
		PaperOut: StatusNoPaper,
	}
	for level, want := range cases {
		if got := level.StatusKind(); got != want {
			t.Errorf("%s.StatusKind() = %s, want %s", level, got, want)
		}
	}
}
