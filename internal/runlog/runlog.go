// Package runlog keeps an append-only CSV history of completed bnc runs.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Command   string
	Inputs    []string
	Output    string
	Records   int
	Detail    string
}

// Header is the CSV header of a run log file.
const Header = "timestamp,run_id,command,inputs,output,records,detail"

// inputSep joins input paths inside the single inputs column.
const inputSep = ";"

const (
	numFields    = 7
	colTimestamp = 0
	colRunID     = 1
	colCommand   = 2
	colInputs    = 3
	colOutput    = 4
	colRecords   = 5
	colDetail    = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colCommand] = e.Command
	row[colInputs] = strings.Join(e.Inputs, inputSep)
	row[colOutput] = e.Output
	row[colRecords] = strconv.Itoa(e.Records)
	row[colDetail] = e.Detail
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	if _, err := uuid.Parse(record[colRunID]); err != nil {
		return Entry{}, fmt.Errorf("parsing run id %q: %w", record[colRunID], err)
	}
	n, err := strconv.Atoi(record[colRecords])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing records %q: %w", record[colRecords], err)
	}

	var inputs []string
	if record[colInputs] != "" {
		inputs = strings.Split(record[colInputs], inputSep)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Command:   record[colCommand],
		Inputs:    inputs,
		Output:    record[colOutput],
		Records:   n,
		Detail:    record[colDetail],
	}, nil
}

// Append writes entries to path, creating the file, its directory and the
// header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries in path, or nil if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
