package escpos

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"kiosk-client/internal/model"
	"kiosk-client/internal/protocol/prototest"
)

func newTestPrinter(t *testing.T, model string) (*Printer, *prototest.Fake) {
	t.Helper()
	fake := prototest.NewFake()
	if err := fake.Open(t.Context()); err != nil {
		t.Fatal(err)
	}
	p := NewPrinter(fake, model, Options{ReadTimeout: 50 * time.Millisecond}, zaptest.NewLogger(t))
	return p, fake
}

func TestParsePaperStatus(t *testing.T) {
	cases := []struct {
		name     string
		response []byte
		want     model.PaperLevel
	}{
		{"empty", nil, model.PaperOut},
		{"present", []byte{0x12}, model.PaperOK},
		{"near end", []byte{0x1E}, model.PaperLow},
		{"end", []byte{0x72}, model.PaperOut},
		{"end and near end", []byte{0x7E}, model.PaperOut},
		{"garbage", []byte{0x00}, model.PaperOut},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParsePaperStatus(tc.response); got != tc.want {
				t.Errorf("ParsePaperStatus(%x) = %s, want %s", tc.response, got, tc.want)
			}
		})
	}
}

func TestPaperStatusQueriesSensor(t *testing.T) {
	p, fake := newTestPrinter(t, "TM-T88II")
	fake.QueueResponse(0x1E)

	level, err := p.PaperStatus(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if level != model.PaperLow {
		t.Errorf("level = %s, want low", level)
	}
	if !bytes.Equal(fake.Written(), Commands.StatusPaper) {
		t.Errorf("query = %x, want %x", fake.Written(), Commands.StatusPaper)
	}
}

func TestPaperStatusSilenceIsOut(t *testing.T) {
	p, _ := newTestPrinter(t, "TM-T88II")

	level, err := p.PaperStatus(t.Context())
	if err != nil {
		t.Fatalf("timeout should not be an error, got %v", err)
	}
	if level != model.PaperOut {
		t.Errorf("level = %s, want out", level)
	}
}

func TestPaperStatusEmptyAnswerIsOut(t *testing.T) {
	p, fake := newTestPrinter(t, "TM-T88II")
	fake.QueueResponse()

	level, err := p.PaperStatus(t.Context())
	if err != nil || level != model.PaperOut {
		t.Errorf("PaperStatus = %s, %v; want out, nil", level, err)
	}
}

func TestPaperStatusWriteFailure(t *testing.T) {
	p, fake := newTestPrinter(t, "TM-T88II")
	fake.SetWriteErr(errors.New("pipe"))

	level, err := p.PaperStatus(t.Context())
	if err == nil {
		t.Fatal("expected error")
	}
	if level != model.PaperOut {
		t.Errorf("level = %s, want out", level)
	}
}

func TestPaperStatusCancelled(t *testing.T) {
	p, _ := newTestPrinter(t, "TM-T88II")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	level, err := p.PaperStatus(ctx)
	if !errors.Is(err, ErrStatusUnknown) || !errors.Is(err, context.Canceled) {
		t.Errorf("PaperStatus error = %v, want ErrStatusUnknown", err)
	}
	if level == model.PaperOut {
		t.Error("a cancelled query must not read as out of paper")
	}
}

func TestPaperStatusCancelledDuringDelay(t *testing.T) {
	fake := prototest.NewFake()
	if err := fake.Open(t.Context()); err != nil {
		t.Fatal(err)
	}
	fake.QueueResponse(0x12)
	p := NewPrinter(fake, "TM-T88II", Options{
		StatusReadDelay: 100 * time.Millisecond,
		ReadTimeout:     50 * time.Millisecond,
	}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(10*time.Millisecond, cancel)
	defer cancel()

	level, err := p.PaperStatus(ctx)
	if !errors.Is(err, ErrStatusUnknown) {
		t.Fatalf("PaperStatus = %s, %v; want ErrStatusUnknown", level, err)
	}
	if level == model.PaperOut {
		t.Error("a cancelled query must not read as out of paper")
	}
}

func TestPaperStatusWithoutSensor(t *testing.T) {
	p, fake := newTestPrinter(t, "TM-P20")

	level, err := p.PaperStatus(t.Context())
	if err != nil || level != model.PaperOK {
		t.Errorf("PaperStatus = %s, %v; want ok, nil", level, err)
	}
	if len(fake.Writes()) != 0 {
		t.Error("no query should be sent without a sensor")
	}
}

func TestPrintTextAppendsCut(t *testing.T) {
	p, fake := newTestPrinter(t, "TM-T88II")

	if err := p.PrintText(t.Context(), "Hello"); err != nil {
		t.Fatal(err)
	}

	writes := fake.Writes()
	if len(writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(writes))
	}
	want := []byte("Hello\n")
	want = append(want, 0x1B, 0x64, 6)
	want = append(want, Commands.CutFull...)
	if !bytes.Equal(writes[0], want) {
		t.Errorf("ticket = %x, want %x", writes[0], want)
	}
}

func TestReset(t *testing.T) {
	p, fake := newTestPrinter(t, "tm-t20")

	if err := p.Reset(t.Context()); err != nil {
		t.Fatal(err)
	}
	want := append([]byte{0x1B, 0x40}, Commands.SelectCharsetPC858...)
	if !bytes.Equal(fake.Written(), want) {
		t.Errorf("reset = %x, want %x", fake.Written(), want)
	}
}

func TestEncodeText(t *testing.T) {
	p, _ := newTestPrinter(t, "TM-T88II")

	got := p.EncodeText("Total: 5€\r\nçà 日")
	want := []byte{'T', 'o', 't', 'a', 'l', ':', ' ', '5', 0xD5, '\n', 0x87, 0x85, ' ', '?'}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeText = %x, want %x", got, want)
	}
}

func TestLookupProfile(t *testing.T) {
	if p, ok := LookupProfile(" tm-t88ii "); !ok || p.Name != "TM-T88II" {
		t.Errorf("LookupProfile = %+v, %v", p, ok)
	}
	if p, ok := LookupProfile("Unknown"); ok || p.Name != DefaultProfileName {
		t.Errorf("unknown model should fall back to default, got %+v", p)
	}
	for _, name := range []string{DefaultProfileName, " Default "} {
		if p, ok := LookupProfile(name); !ok || p.Name != DefaultProfileName {
			t.Errorf("LookupProfile(%q) = %+v, %v; want the default profile as known", name, p, ok)
		}
	}
	if cmd := profiles["TM-P20"].cutCommand(); !bytes.Equal(cmd, []byte{0x1B, 0x64, 3}) {
		t.Errorf("cutter-less profile cut = %x", cmd)
	}
}
