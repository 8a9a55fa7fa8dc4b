package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{"UUID", `"3f1c2a4e-0000-4000-8000-000000000001"`, "3f1c2a4e-0000-4000-8000-000000000001"},
		{"Integer", `42`, "42"},
		{"BigInt", `9007199254740993`, "9007199254740993"},
		{"Null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.want, id)
		})
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &id))
}

func TestModelsDecodeNumericKeys(t *testing.T) {
	var m MetadataRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":12,"image_id":3,"pinata_cid":"bafy","created_at":"2024-05-01T10:00:00Z"}`), &m))
	assert.Equal(t, "12", m.ID)
	assert.Equal(t, "3", m.ImageID)
	assert.Equal(t, "bafy", m.PinataCID)
	assert.False(t, m.CreatedAt.IsZero())

	var tok Token
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t-1","metadata_id":12,"tx_hash":"0xabc"}`), &tok))
	assert.Equal(t, "t-1", tok.ID)
	assert.Equal(t, "12", tok.MetadataID)
	assert.Equal(t, "0xabc", tok.TxHash)

	var img Image
	require.NoError(t, json.Unmarshal([]byte(`{"id":5,"file_name":"cat.png"}`), &img))
	assert.Equal(t, "5", img.ID)
	assert.Equal(t, "cat.png", img.FileName)
}
