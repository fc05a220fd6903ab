package transmux

import "testing"

func TestStreamType_String(t *testing.T) {
	t.Parallel()
	if got, want := StreamTypeAVC.String(), "AVC (0x1b)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := StreamType(0xEE).String(), "undefined (0xee)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPat_Equal_NilHandling(t *testing.T) {
	t.Parallel()
	var a, b *Pat
	if !a.Equal(b) {
		t.Error("two nil PATs should be Equal")
	}
	a = &Pat{}
	if a.Equal(b) || b.Equal(a) {
		t.Error("nil vs non-nil PAT must not be Equal")
	}
}

func TestPat_Clone_Nil(t *testing.T) {
	t.Parallel()
	var a *Pat
	if a.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestPmt_Equal_DescriptorMismatch(t *testing.T) {
	t.Parallel()
	a := &Pmt{Streams: []StreamInfo{{PID: 1, Descs: []StreamDesc{Ac3Desc{}}}}}
	b := &Pmt{Streams: []StreamInfo{{PID: 1, Descs: []StreamDesc{Eac3Desc{}}}}}
	if a.Equal(b) {
		t.Error("PMTs with different descriptor kinds must not be Equal")
	}
}

func TestPmt_Equal_MetadataAppFormatID(t *testing.T) {
	t.Parallel()
	v1, v2 := uint32(1), uint32(2)
	a := &Pmt{Streams: []StreamInfo{{Descs: []StreamDesc{MetadataDesc{AppFormatID: &v1}}}}}
	b := &Pmt{Streams: []StreamInfo{{Descs: []StreamDesc{MetadataDesc{AppFormatID: &v2}}}}}
	if a.Equal(b) {
		t.Error("MetadataDesc with different AppFormatID must not be Equal")
	}
	c := &Pmt{Streams: []StreamInfo{{Descs: []StreamDesc{MetadataDesc{AppFormatID: &v1}}}}}
	if !a.Equal(c) {
		t.Error("MetadataDesc with equal AppFormatID should be Equal")
	}
}

func TestPmt_Equal_Nil(t *testing.T) {
	t.Parallel()
	var a, b *Pmt
	if !a.Equal(b) {
		t.Error("two nil PMTs should be Equal")
	}
	a = &Pmt{}
	if a.Equal(b) {
		t.Error("nil vs non-nil PMT must not be Equal")
	}
}
