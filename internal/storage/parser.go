package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/wingera/schematic-material-viewer/internal/protocol"
)

var ErrUnparsable = errors.New("file could not be parsed with any supported encoding")

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// ParseCSV reads a material list CSV: header row, then one item per line
// with at least (name, quantity). Lists come from machines configured for
// several Chinese encodings, so decoding falls back across UTF-8, GBK,
// GB18030 and UTF-16 before giving up. Rows with a blank name or quantity
// are skipped; a non-numeric quantity skips the row with a warning.
//
// Some exporters write a JSON array into the .csv instead; that shape is
// detected and parsed as STI data.
func ParseCSV(r io.Reader, log *zap.Logger) ([]protocol.Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		return ParseSTI(strings.NewReader(trimmed))
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return []protocol.Row{}, nil
	}

	rows := make([]protocol.Row, 0, len(records)-1)
	for i, rec := range records[1:] { // first record is the header
		if len(rec) < 2 {
			continue
		}
		name := strings.TrimSpace(rec[0])
		qty := strings.TrimSpace(rec[1])
		if name == "" || qty == "" {
			continue
		}
		n, err := strconv.Atoi(qty)
		if err != nil {
			log.Warn("skipping row with bad quantity",
				zap.Int("line", i+2), zap.String("quantity", qty))
			continue
		}
		boxes, groups, pieces := Breakdown(n)
		rows = append(rows, protocol.Row{
			Name:     name,
			Quantity: qty,
			Boxes:    boxes,
			Groups:   groups,
			Pieces:   pieces,
			Status:   protocol.StatusNotCompleted,
		})
	}
	return rows, nil
}

// ParseSTI reads the native save format: a JSON array of 6-element rows.
func ParseSTI(r io.Reader) ([]protocol.Row, error) {
	var rows []protocol.Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("parse sti: %w", err)
	}
	return rows, nil
}

// decodeText converts raw file bytes to UTF-8, trying encodings in order
// of likelihood. UTF-16 is only attempted when a BOM says so.
func decodeText(raw []byte) (string, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		raw = raw[len(utf8BOM):]
	}
	if len(raw) >= 2 {
		var enc encoding.Encoding
		switch {
		case raw[0] == 0xff && raw[1] == 0xfe:
			enc = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
		case raw[0] == 0xfe && raw[1] == 0xff:
			enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
		}
		if enc != nil {
			out, err := enc.NewDecoder().Bytes(raw)
			if err != nil {
				return "", fmt.Errorf("%w: utf-16 decode: %v", ErrUnparsable, err)
			}
			return string(out), nil
		}
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}
	for _, enc := range []encoding.Encoding{simplifiedchinese.GBK, simplifiedchinese.GB18030} {
		out, err := enc.NewDecoder().Bytes(raw)
		if err == nil && utf8.Valid(out) {
			return string(out), nil
		}
	}
	return "", ErrUnparsable
}
