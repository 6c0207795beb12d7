package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rxparse/internal/engine"
)

// executeRoot runs the root command with stdin and returns stdout.
func executeRoot(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// parseResponse decodes a JSON parse command response.
func parseResponse(t *testing.T, out string) (string, ParseResult, *CLIError) {
	t.Helper()
	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp.Status, resp.Data, resp.Error
}

const pointLayout = `package layouts

layout: Point: {
	byte_order: "big"
	fields: [
		{name: "x", type: "int16"},
		{name: "y", type: "int16"},
	]
}
`

func writeLayouts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "points.cue"), []byte(pointLayout), 0644))
	return dir
}

func TestWordsCommand_Text(t *testing.T) {
	out, err := executeRoot(t, []byte("Hello, wörld!"), "words", "-")
	require.NoError(t, err)
	assert.Equal(t, "[0+5] Hello\n[5+7] wörld\n", out)
}

func TestWordsCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("ab cd"), 0644))

	out, err := executeRoot(t, nil, "words", path)
	require.NoError(t, err)
	assert.Equal(t, "[0+2] ab\n[2+3] cd\n", out)
}

func TestWordsCommand_MissingFile(t *testing.T) {
	_, err := executeRoot(t, nil, "words", "/nonexistent/input.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWordsCommand_Lines(t *testing.T) {
	out, err := executeRoot(t, []byte("one\ntwo\n"), "--format", "json", "words", "--lines", "-")
	require.NoError(t, err)

	status, result, _ := parseResponse(t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, "lines", result.Grammar)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "one", result.Matches[0].Value)
	assert.Equal(t, "two", result.Matches[1].Value)
}

func TestWordsCommand_InputEncoding(t *testing.T) {
	// "café" in windows-1252
	out, err := executeRoot(t, []byte{'c', 'a', 'f', 0xe9}, "words", "--input-encoding", "windows-1252", "-")
	require.NoError(t, err)
	assert.Equal(t, "[0+4] café\n", out)
}

func TestWordsCommand_InvalidInputEncoding(t *testing.T) {
	_, err := executeRoot(t, []byte("ab"), "words", "--input-encoding", "no-such-encoding", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --input-encoding")
}

func TestWordsCommand_StrictFailure(t *testing.T) {
	out, err := executeRoot(t, []byte("ab1"), "words", "--strict", "-")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, engine.IsUnmatchedError(err))
	assert.Contains(t, out, "[0+2] ab\n")
	assert.Contains(t, out, "Error [UNMATCHED_INPUT]")
}

func TestXMLCommand_JSON(t *testing.T) {
	out, err := executeRoot(t, []byte(`<a x="1"><b/></A>`), "--format", "json", "xml", "--names", "ignore-case", "-")
	require.NoError(t, err)

	status, result, _ := parseResponse(t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, "xml", result.Grammar)
	assert.NotEmpty(t, result.Session)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, `<a x="1"><b></b></a>`, result.Matches[0].Value)
}

func TestXMLCommand_InvalidNames(t *testing.T) {
	_, err := executeRoot(t, []byte("<a/>"), "xml", "--names", "phonetic", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --names")
}

func TestDecodeCommand_Layout(t *testing.T) {
	layouts := writeLayouts(t)
	input := []byte{0x00, 0x01, 0xff, 0xfe}

	out, err := executeRoot(t, input, "decode", "--layouts", layouts, "--record", "Point", "-")
	require.NoError(t, err)
	assert.Equal(t, "[0+4] Point{x=1 y=-2}\n", out)

	out, err = executeRoot(t, input, "--format", "json", "decode", "--layouts", layouts, "--record", "Point", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"value": {`)
	assert.Contains(t, out, `"x": 1`)
	assert.Contains(t, out, `"y": -2`)
}

func TestDecodeCommand_Type(t *testing.T) {
	out, err := executeRoot(t, []byte{0x01, 0x02, 0x00, 0x03}, "decode", "--type", "uint16", "--byte-order", "big", "-")
	require.NoError(t, err)
	assert.Equal(t, "[0+2] 258\n[2+2] 3\n", out)
}

func TestDecodeCommand_Errors(t *testing.T) {
	layouts := writeLayouts(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"neither record nor type", []string{"decode", "-"}, "give exactly one of --record or --type"},
		{"both record and type", []string{"decode", "--record", "Point", "--type", "uint8", "-"}, "give exactly one of --record or --type"},
		{"record without layouts", []string{"decode", "--record", "Point", "-"}, "--record needs --layouts"},
		{"bad byte order", []string{"decode", "--type", "uint8", "--byte-order", "middle", "-"}, "invalid --byte-order"},
		{"bad encoding", []string{"decode", "--type", "string", "--encoding", "no-such-encoding", "-"}, "invalid --encoding"},
		{"missing layouts dir", []string{"decode", "--layouts", "/nonexistent", "--record", "Point", "-"}, "failed to load layouts"},
		{"unknown record", []string{"decode", "--layouts", layouts, "--record", "Line", "-"}, `unknown layout "Line"`},
		{"unknown type", []string{"decode", "--type", "uint128", "-"}, `unknown binary type "uint128"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeRoot(t, []byte{1, 2}, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestParseResult_String(t *testing.T) {
	result := ParseResult{Matches: []ParseMatch{
		{Index: 0, Length: 2, Value: "ab"},
		{Index: 2, Length: 2, Value: uint16(7)},
	}}
	assert.Equal(t, "[0+2] ab\n[2+2] 7", result.String())
	assert.Equal(t, "", ParseResult{}.String())
}

func TestOutputValue(t *testing.T) {
	assert.Equal(t, "ab", outputValue("ab"))
	assert.Equal(t, uint16(7), outputValue(uint16(7)))
	assert.Equal(t, true, outputValue(true))
	assert.Equal(t, "0102", outputValue([]byte{1, 2}))
	assert.Equal(t, "1.5", outputValue(1.5))
}
