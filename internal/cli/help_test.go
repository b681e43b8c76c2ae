package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type helpTestCLI struct {
	Version bool `short:"v" help:"Show version information"`

	Classify struct {
		Output string   `short:"o" help:"Results path"`
		Files  []string `arg:"" help:"Recordings to classify"`
	} `cmd:"" help:"Classify recordings into voice and noise"`

	Record struct {
		Duration time.Duration `default:"10s" help:"Capture length"`
		Output   string        `arg:"" help:"Destination WAV"`
	} `cmd:"" help:"Record from the default microphone"`
}

func renderHelp(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	parser, err := kong.New(&helpTestCLI{},
		kong.Name("voicegate"),
		kong.Writers(&out, &out),
		kong.Exit(func(int) {}),
		kong.Help(StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
	require.NoError(t, err)
	_, _ = parser.Parse(args)
	return out.String()
}

func TestStyledHelpRoot(t *testing.T) {
	help := renderHelp(t, "--help")

	assert.Contains(t, help, "Voicegate")
	assert.Contains(t, help, "voicegate <command> [flags]")
	assert.Contains(t, help, "Commands:")
	assert.Contains(t, help, "classify")
	assert.Contains(t, help, "Record from the default microphone")
	assert.Contains(t, help, "-v, --version")
	assert.Equal(t, 1, strings.Count(help, "--help"))
}

func TestStyledHelpCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "classify",
			args: []string{"classify", "--help"},
			want: []string{"voicegate classify [flags]", "Classify recordings into voice and noise", "--output", "Results path", "-v, --version"},
		},
		{
			name: "record",
			args: []string{"record", "--help"},
			want: []string{"voicegate record [flags]", "--duration", "(default: 10s)", "Destination WAV"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			help := renderHelp(t, tt.args...)
			for _, want := range tt.want {
				assert.Contains(t, help, want)
			}
			assert.NotContains(t, help, "Commands:")
		})
	}
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	PrintVersion(&out, "1.2.3")
	assert.Contains(t, out.String(), "Voicegate")
	assert.Contains(t, out.String(), "1.2.3")
}
