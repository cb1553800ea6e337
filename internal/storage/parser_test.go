package storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/wingera/schematic-material-viewer/internal/protocol"
)

const sampleCSV = "名称,数量\n电阻,3500\n电容,100\n"

func requireSampleRows(t *testing.T, rows []protocol.Row) {
	t.Helper()
	require.Len(t, rows, 2)
	assert.Equal(t, protocol.Row{Name: "电阻", Quantity: "3500", Boxes: 2, Groups: 0, Pieces: 44, Status: protocol.StatusNotCompleted}, rows[0])
	assert.Equal(t, protocol.Row{Name: "电容", Quantity: "100", Boxes: 0, Groups: 1, Pieces: 36, Status: protocol.StatusNotCompleted}, rows[1])
}

func TestParseCSVUTF8(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(sampleCSV), zap.NewNop())
	require.NoError(t, err)
	requireSampleRows(t, rows)
}

func TestParseCSVUTF8WithBOM(t *testing.T) {
	in := append([]byte{0xef, 0xbb, 0xbf}, []byte(sampleCSV)...)
	rows, err := ParseCSV(bytes.NewReader(in), zap.NewNop())
	require.NoError(t, err)
	requireSampleRows(t, rows)
}

func TestParseCSVGBK(t *testing.T) {
	enc, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(sampleCSV))
	require.NoError(t, err)

	rows, err := ParseCSV(bytes.NewReader(enc), zap.NewNop())
	require.NoError(t, err)
	requireSampleRows(t, rows)
}

func TestParseCSVUTF16LE(t *testing.T) {
	enc, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(sampleCSV))
	require.NoError(t, err)

	rows, err := ParseCSV(bytes.NewReader(enc), zap.NewNop())
	require.NoError(t, err)
	requireSampleRows(t, rows)
}

func TestParseCSVSkipsBlankAndBadRows(t *testing.T) {
	in := "name,qty\n,100\nscrew,\nbolt,many\nwasher,64\n"
	rows, err := ParseCSV(strings.NewReader(in), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "washer", rows[0].Name)
	assert.Equal(t, 1, rows[0].Groups)
}

func TestParseCSVDetectsEmbeddedJSON(t *testing.T) {
	// some exporters write STI data into a .csv
	in := `[["电阻","3500",2,0,44,"completed"]]`
	rows, err := ParseCSV(strings.NewReader(in), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "completed", rows[0].Status)
}

func TestParseCSVEmptyFile(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(""), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseSTI(t *testing.T) {
	in := `[["电阻","3500",2,0,44,"未完成"],["电容","100",0,1,36,"in-progress"]]`
	rows, err := ParseSTI(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "in-progress", rows[1].Status)
}

func TestParseSTIRejectsBadShapes(t *testing.T) {
	for _, in := range []string{
		`{"not":"an array"}`,
		`[["short","row"]]`,
		`broken`,
	} {
		_, err := ParseSTI(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}
