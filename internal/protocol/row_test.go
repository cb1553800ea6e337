package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowMarshalsAsPositionalArray(t *testing.T) {
	row := Row{Name: "电阻 10kΩ", Quantity: "3500", Boxes: 2, Groups: 0, Pieces: 44, Status: StatusNotCompleted}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `["电阻 10kΩ","3500",2,0,44,"未完成"]`, string(data))
}

func TestRowUnmarshalAcceptsNumericQuantity(t *testing.T) {
	var row Row
	require.NoError(t, json.Unmarshal([]byte(`["cap",470,0,7,22,"in-progress"]`), &row))
	assert.Equal(t, "470", row.Quantity)
	assert.Equal(t, 7, row.Groups)
}

func TestRowUnmarshalRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"object instead of array", `{"name":"x"}`},
		{"too few fields", `["x","1",0,0]`},
		{"too many fields", `["x","1",0,0,1,"ok","extra"]`},
		{"non-numeric count", `["x","1","zero",0,1,"ok"]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var row Row
			assert.Error(t, json.Unmarshal([]byte(tc.in), &row))
		})
	}
}

func TestCloneRowsDoesNotAlias(t *testing.T) {
	rows := []Row{{Name: "a", Status: StatusNotCompleted}}
	clone := CloneRows(rows)
	clone[0].Status = StatusCompleted
	assert.Equal(t, StatusNotCompleted, rows[0].Status)

	assert.Nil(t, CloneRows(nil))
}

func TestDecodePeelsType(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"join_file","filename":"boxA.sti"}`))
	require.NoError(t, err)
	assert.Equal(t, EventJoinFile, msg.Type)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
