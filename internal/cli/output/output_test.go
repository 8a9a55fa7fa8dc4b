package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type runResult struct {
	Checked int      `json:"checked" yaml:"checked"`
	Orphans []string `json:"orphans" yaml:"orphans"`
}

func (r runResult) SummaryPairs() [][2]string {
	return [][2]string{{"Checked", "2"}, {"Orphaned", "1"}}
}

func (r runResult) Headers() []string { return []string{"CID"} }

func (r runResult) Rows() [][]string {
	rows := make([][]string, 0, len(r.Orphans))
	for _, o := range r.Orphans {
		rows = append(rows, []string{o})
	}
	return rows
}

func (r runResult) EmptyMessage() string { return "No orphans found." }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "text alias", input: "text", want: FormatTable},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yml alias", input: " yml ", want: FormatYAML},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterTable(t *testing.T) {
	t.Run("SummaryThenRows", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatTable, false)

		require.NoError(t, p.Print(runResult{Checked: 2, Orphans: []string{"bafyorphan"}}))

		out := buf.String()
		assert.Contains(t, out, "Checked")
		assert.Contains(t, out, "Orphaned")
		assert.Contains(t, out, "CID")
		assert.Contains(t, out, "bafyorphan")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("Checked")), bytes.Index(buf.Bytes(), []byte("bafyorphan")))
	})

	t.Run("EmptyMessage", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatTable, false)

		require.NoError(t, p.Print(runResult{Checked: 2}))
		assert.Contains(t, buf.String(), "No orphans found.")
		assert.NotContains(t, buf.String(), "CID")
	})

	t.Run("FallbackToJSON", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatTable, false)

		require.NoError(t, p.Print(map[string]string{"cid": "bafy"}))
		assert.Contains(t, buf.String(), `"cid": "bafy"`)
	})
}

func TestPrinterStructured(t *testing.T) {
	data := runResult{Checked: 2, Orphans: []string{"bafyorphan"}}

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(data))

		var got runResult
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, data, got)
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(data))

		var got runResult
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, data, got)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, NewPrinter(&buf, Format("xml"), false).Print(data))
	})
}

func TestPrinterMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)

	p.Success("pinned")
	p.Warning("check failed")
	p.Error("delete failed")

	assert.Equal(t, "pinned\ncheck failed\ndelete failed\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Success("ok")
	assert.Equal(t, "\033[32mok\033[0m\n", buf.String())
}

func TestTableData(t *testing.T) {
	table := NewTableData("ID", "CID").WithEmptyMessage("nothing")
	assert.Empty(t, table.Rows())
	assert.Equal(t, "nothing", table.EmptyMessage())

	table.AddRow("1", "bafy1")
	table.AddRow("2", "bafy2")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "bafy2")
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{{"Mode", "repair"}, {"Deleted", "3"}}))

	out := buf.String()
	assert.Contains(t, out, "Mode")
	assert.Contains(t, out, "repair")
	assert.Contains(t, out, "Deleted")
}
