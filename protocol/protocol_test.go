package protocol

import (
	"bytes"
	"testing"

	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/packet"
	"github.com/m-lab/mbm/result"
)

func TestConfigRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := config.Config{SocketType: config.TCP, CBRKbS: 10000, RTTMS: 10, MSSBytes: 1460}
	if err := WriteConfig(&buf, c); err != nil {
		t.Fatal(err)
	}
	got, err := ReadConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Errorf("got %+v, want %+v", got, c)
	}
}

func TestConfigShortRead(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2, 3})
	if _, err := ReadConfig(buf); err != ErrShortRead {
		t.Errorf("err = %v, want ErrShortRead", err)
	}
}

func TestPortRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePort(&buf, 12345); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPort(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != 12345 {
		t.Errorf("got %d, want 12345", got)
	}
}

func TestReadyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReady(&buf); err != nil {
		t.Fatal(err)
	}
	if err := ReadReady(&buf); err != nil {
		t.Fatal(err)
	}
}

func TestReadyRejectsWrongSentinel(t *testing.T) {
	buf := bytes.NewBufferString("NOPE!")
	if err := ReadReady(buf); err != ErrBadSentinel {
		t.Errorf("err = %v, want ErrBadSentinel", err)
	}
}

func TestEndRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEnd(&buf); err != nil {
		t.Fatal(err)
	}
	if err := ReadEnd(&buf); err != nil {
		t.Fatal(err)
	}
}

func TestLegacyBudgetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLegacyBudget(&buf, 5000, 45); err != nil {
		t.Fatal(err)
	}
	maxNumPkt, maxTimeSec, err := ReadLegacyBudget(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if maxNumPkt != 5000 || maxTimeSec != 45 {
		t.Errorf("got (%d, %d), want (5000, 45)", maxNumPkt, maxTimeSec)
	}
}

func TestResultRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, result.Pass); err != nil {
		t.Fatal(err)
	}
	got, err := ReadResult(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != result.Pass {
		t.Errorf("got %v, want PASS", got)
	}
}

func TestTelemetryRoundTrip(t *testing.T) {
	data := []packet.TrafficData{
		{SeqNo: 0, Nonce: 1, Timestamp: 100},
		{SeqNo: 1, Nonce: 2, Timestamp: 200},
		{SeqNo: 2, Nonce: 3, Timestamp: 300},
	}
	var buf bytes.Buffer
	if err := WriteTelemetry(&buf, data); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTelemetry(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(data) {
		t.Fatalf("got %d records, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], data[i])
		}
	}
}

func TestTelemetryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTelemetry(&buf, nil); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTelemetry(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestTelemetryLargeSplitsAcrossWrites(t *testing.T) {
	n := MaxTelemetryWriteBytes/packet.TrafficDataSize + 10
	data := make([]packet.TrafficData, n)
	for i := range data {
		data[i] = packet.TrafficData{SeqNo: uint32(i), Nonce: uint32(i * 2), Timestamp: uint64(i) * 1000}
	}
	var buf bytes.Buffer
	if err := WriteTelemetry(&buf, data); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTelemetry(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(data) {
		t.Fatalf("got %d records, want %d", len(got), len(data))
	}
}
