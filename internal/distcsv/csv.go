// Package distcsv reads and writes exchange distribution/history CSV exports.
package distcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coinledger/bnc/internal/model"
	"github.com/coinledger/bnc/internal/timestamp"
)

// Header is the CSV header of a distribution export.
const Header = "User_Id,Time,Category,Operation,Order_Id,Transaction_Id," +
	"Primary_Asset,Realized_Amount_For_Primary_Asset,Realized_Amount_For_Primary_Asset_In_USD_Value," +
	"Base_Asset,Realized_Amount_For_Base_Asset,Realized_Amount_For_Base_Asset_In_USD_Value," +
	"Quote_Asset,Realized_Amount_For_Quote_Asset,Realized_Amount_For_Quote_Asset_In_USD_Value," +
	"Fee_Asset,Realized_Amount_For_Fee_Asset,Realized_Amount_For_Fee_Asset_In_USD_Value," +
	"Payment_Method,Withdrawal_Method,Additional_Note"

const (
	numFields       = 21
	colUserID       = 0
	colTime         = 1
	colCategory     = 2
	colOperation    = 3
	colOrderID      = 4
	colTxID         = 5
	colLegs         = 6 // first of four (asset, amount, usd) triples
	colPayment      = 18
	colWithdrawal   = 19
	colNote         = 20
	fieldsPerLeg    = 3
	legAssetOffset  = 0
	legAmountOffset = 1
	legUSDOffset    = 2
)

var headerFields = strings.Split(Header, ",")

func legColumn(role model.Role, offset int) int {
	return colLegs + int(role)*fieldsPerLeg + offset
}

// MarshalRecord converts a Record to a CSV row. Absent amounts are written
// as empty strings.
func MarshalRecord(rec model.Record) []string {
	row := make([]string, numFields)
	row[colUserID] = rec.UserID
	row[colTime] = timestamp.FormatMs(rec.TimeMs)
	row[colCategory] = string(rec.Category)
	row[colOperation] = rec.Operation
	row[colOrderID] = rec.OrderID
	row[colTxID] = strconv.FormatUint(rec.TransactionID, 10)

	for _, role := range model.Roles {
		leg := rec.Leg(role)
		row[legColumn(role, legAssetOffset)] = leg.Asset
		row[legColumn(role, legAmountOffset)] = formatNull(leg.Amount)
		row[legColumn(role, legUSDOffset)] = formatNull(leg.USD)
	}

	row[colPayment] = rec.PaymentMethod
	row[colWithdrawal] = rec.WithdrawalMethod
	row[colNote] = rec.AdditionalNote
	return row
}

func formatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// UnmarshalRecord converts a CSV row to a Record. The returned error is a
// *ParseError without file or line information.
func UnmarshalRecord(row []string) (model.Record, error) {
	if len(row) != numFields {
		return model.Record{}, &ParseError{
			Kind:   KindMalformedRow,
			Detail: fmt.Sprintf("expected %d fields, got %d", numFields, len(row)),
		}
	}

	timeMs, err := timestamp.ParseMs(row[colTime])
	if err != nil {
		return model.Record{}, badField(headerFields[colTime], row[colTime], err)
	}

	txID, err := strconv.ParseUint(row[colTxID], 10, 64)
	if err != nil {
		return model.Record{}, badField(headerFields[colTxID], row[colTxID], err)
	}

	rec := model.Record{
		UserID:           row[colUserID],
		TimeMs:           timeMs,
		Category:         model.Category(row[colCategory]),
		Operation:        row[colOperation],
		OrderID:          row[colOrderID],
		TransactionID:    txID,
		PaymentMethod:    row[colPayment],
		WithdrawalMethod: row[colWithdrawal],
		AdditionalNote:   row[colNote],
	}

	for _, role := range model.Roles {
		leg := rec.Leg(role)
		leg.Asset = row[legColumn(role, legAssetOffset)]
		if leg.Amount, err = parseNull(row, legColumn(role, legAmountOffset)); err != nil {
			return model.Record{}, err
		}
		if leg.USD, err = parseNull(row, legColumn(role, legUSDOffset)); err != nil {
			return model.Record{}, err
		}
	}

	if !rec.HasEffectiveAsset() {
		kind := KindNoAsset
		if rec.Primary.Asset != "" {
			kind = KindAmbiguousAsset
		}
		return model.Record{}, &ParseError{
			Kind:   kind,
			Detail: fmt.Sprintf("primary asset %q, base asset %q", rec.Primary.Asset, rec.Base.Asset),
		}
	}
	return rec, nil
}

func parseNull(row []string, col int) (decimal.NullDecimal, error) {
	if row[col] == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(row[col])
	if err != nil {
		return decimal.NullDecimal{}, badField(headerFields[col], row[col], err)
	}
	return decimal.NewNullDecimal(d), nil
}

func badField(column, value string, err error) *ParseError {
	return &ParseError{Kind: KindBadField, Column: column, Value: value, Err: err}
}

// Reader streams records from a distribution CSV, validating the header.
type Reader struct {
	file   string
	cr     *csv.Reader
	header bool
}

// NewReader returns a Reader over r. file is used only in error messages.
func NewReader(r io.Reader, file string) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.ReuseRecord = true
	return &Reader{file: file, cr: cr}
}

// Next returns the next record and its 1-based line number in the file.
// It returns io.EOF after the last record.
func (r *Reader) Next() (model.Record, int, error) {
	if !r.header {
		if err := r.readHeader(); err != nil {
			return model.Record{}, 0, err
		}
		r.header = true
	}

	row, err := r.cr.Read()
	if errors.Is(err, io.EOF) {
		return model.Record{}, 0, io.EOF
	}
	if err != nil {
		var line int
		var cpe *csv.ParseError
		if errors.As(err, &cpe) {
			line = cpe.StartLine
		}
		return model.Record{}, line, r.wrap(&ParseError{Kind: KindMalformedRow, Err: err}, line)
	}
	line, _ := r.cr.FieldPos(0)

	rec, err := UnmarshalRecord(row)
	if err != nil {
		return model.Record{}, line, r.wrap(err, line)
	}
	return rec, line, nil
}

func (r *Reader) readHeader() error {
	row, err := r.cr.Read()
	if errors.Is(err, io.EOF) {
		return r.wrap(&ParseError{Kind: KindBadHeader, Detail: "empty file"}, 1)
	}
	if err != nil {
		return r.wrap(&ParseError{Kind: KindBadHeader, Err: err}, 1)
	}
	for i, want := range headerFields {
		got := strings.TrimPrefix(row[i], "\ufeff")
		if got != want {
			return r.wrap(&ParseError{
				Kind:   KindBadHeader,
				Column: want,
				Value:  got,
				Detail: fmt.Sprintf("column %d", i+1),
			}, 1)
		}
	}
	return nil
}

func (r *Reader) wrap(err error, line int) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.File = r.file
		pe.Line = line
	}
	return err
}

// ReadRecords reads every record from r.
func ReadRecords(r io.Reader, file string) ([]model.Record, error) {
	rd := NewReader(r, file)
	var recs []model.Record
	for {
		rec, _, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

// Writer writes records to a distribution CSV, emitting the header before
// the first record.
type Writer struct {
	cw     *csv.Writer
	header bool
	rows   int
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// WriteHeader writes the header if it has not been written yet.
func (w *Writer) WriteHeader() error {
	if w.header {
		return nil
	}
	if err := w.cw.Write(headerFields); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	w.header = true
	return nil
}

// Write writes one record.
func (w *Writer) Write(rec model.Record) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	w.rows++
	if err := w.cw.Write(MarshalRecord(rec)); err != nil {
		return fmt.Errorf("writing row %d: %w", w.rows+1, err)
	}
	return nil
}

// Flush flushes buffered rows and reports any write error.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// Rows returns the number of records written.
func (w *Writer) Rows() int { return w.rows }

// WriteRecords writes recs to w, including the header.
func WriteRecords(w io.Writer, recs []model.Record) error {
	cw := NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return cw.Flush()
}
