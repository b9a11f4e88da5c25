// Package telemetrylog implements the optional per-run log file: one
// whitespace-separated `seq_no nonce timestamp` row per TrafficData
// record, written with github.com/gocarina/gocsv with its field separator
// reconfigured to a space.
package telemetrylog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/m-lab/mbm/packet"
)

// Kind names a log file's role, selecting the filename suffix.
type Kind string

// The three log roles a run can produce.
const (
	ClientData Kind = "clientdata"
	ServerData Kind = "serverdata"
	TestData   Kind = "testdata"
)

// record is the whitespace-separated row shape gocsv marshals.
type record struct {
	SeqNo     uint32 `csv:"seq_no"`
	Nonce     uint32 `csv:"nonce"`
	Timestamp uint64 `csv:"timestamp"`
}

// Write serializes data as whitespace-separated rows to
// <dir>/<unixTimestamp>_<kind>.txt, creating dir (and any missing parents)
// if needed. Returns the path written.
func Write(dir string, unixTimestamp int64, kind Kind, data []packet.TrafficData) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%d_%s.txt", unixTimestamp, kind))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	records := make([]*record, len(data))
	for i, d := range data {
		records[i] = &record{SeqNo: d.SeqNo, Nonce: d.Nonce, Timestamp: d.Timestamp}
	}

	writer := gocsv.NewSafeCSVWriter(f)
	writer.Writer.Comma = ' '
	if err := gocsv.MarshalCSV(records, writer); err != nil {
		return "", err
	}
	return path, nil
}
