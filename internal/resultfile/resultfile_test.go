package resultfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redops/internal/domain"
)

var sample = []domain.TaskResult{
	{Start: "2026-03-01 09:00", SourceIP: "10.0.0.5", DestinationIP: "10.0.1.20", DestinationPort: "445", ToolApp: "crackmapexec", Result: "SMB signing disabled", OperatorName: "riley"},
	{SourceIP: "10.0.0.5", DestinationIP: "10.0.1.21", Command: "nmap -sV 10.0.1.21", Comments: "no findings"},
}

func TestFormatOf(t *testing.T) {
	for name, want := range map[string]Format{"r.xlsx": FormatXLSX, "R.CSV": FormatCSV, "dump.json": FormatJSON} {
		got, err := FormatOf(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}
	_, err := FormatOf("results.xls")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteThenParseEachFormat(t *testing.T) {
	for _, name := range []string{"results.xlsx", "results.csv", "results.json"} {
		t.Run(name, func(t *testing.T) {
			format, err := FormatOf(name)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, format, sample))

			got, err := Parse(name, &buf)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, sample[0].Row(), got[0].Row())
			assert.Equal(t, sample[1].Row(), got[1].Row())
		})
	}
}

func TestParseCSVSkipsHeaderAndBlankRows(t *testing.T) {
	data := "Start,End,Source IP,Destination IP\n" +
		"09:00,09:05, 10.0.0.5 ,10.0.1.20\n" +
		",,,\n" +
		"10:00\n"
	got, err := Parse("import.csv", strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.5", got[0].SourceIP)
	assert.Equal(t, "10.0.1.20", got[0].DestinationIP)
	assert.Equal(t, "10:00", got[1].Start)
	assert.Empty(t, got[1].OperatorName)
}

func TestParseRejectsBrokenSpreadsheet(t *testing.T) {
	_, err := Parse("broken.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}
