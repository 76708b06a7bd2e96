package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/satindergrewal/affix/internal/preset"
)

func TestPrintParams(t *testing.T) {
	var buf bytes.Buffer
	PrintParams(&buf, preset.Params{PostSilenceMS: 2000, PreSilenceMS: 150, SkipSubpaths: []string{"live", "bonus"}})
	out := buf.String()
	for _, want := range []string{"Pre-silence:", "150 ms", "Post-silence:", "2000 ms", "live, bonus"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintParamsNoSubpaths(t *testing.T) {
	var buf bytes.Buffer
	PrintParams(&buf, preset.Default())
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("output = %q, want (none) for empty skip list", buf.String())
	}
}

func TestPrintRejected(t *testing.T) {
	var buf bytes.Buffer
	PrintRejected(&buf, []preset.Rejected{{Field: preset.FieldPreSilence, Value: -5, Restored: 0}})
	out := buf.String()
	if !strings.Contains(out, "pre_silence_ms=-5") || !strings.Contains(out, "kept 0") {
		t.Errorf("output = %q", out)
	}
}

type helpCLI struct {
	Serve struct {
		Port int  `default:"8080" help:"Listen port."`
		Loop bool `help:"Loop the playlist."`
	} `cmd:"" help:"Run the radio server."`
	Decode struct {
		File string `arg:"" help:"Blob file."`
	} `cmd:"" help:"Decode a blob."`
}

func renderHelp(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	var c helpCLI
	parser, err := kong.New(&c,
		kong.Name("affix"),
		kong.Description("Silence between tracks"),
		kong.Writers(&out, &out),
		kong.Exit(func(int) {}),
		kong.Help(StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = parser.Parse(args)
	return out.String()
}

func TestStyledHelpRoot(t *testing.T) {
	out := renderHelp(t, "--help")
	for _, want := range []string{"Usage:", "Commands:", "serve", "Run the radio server.", "decode", "-h, --help"} {
		if !strings.Contains(out, want) {
			t.Errorf("root help missing %q:\n%s", want, out)
		}
	}
}

func TestStyledHelpCommand(t *testing.T) {
	out := renderHelp(t, "serve", "--help")
	for _, want := range []string{"affix serve", "--port=", "Listen port.", "default: 8080", "--loop"} {
		if !strings.Contains(out, want) {
			t.Errorf("serve help missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "--loop=") {
		t.Error("bool flag rendered with a placeholder")
	}
}

func TestStyledHelpArguments(t *testing.T) {
	out := renderHelp(t, "decode", "--help")
	if !strings.Contains(out, "Arguments:") || !strings.Contains(out, "Blob file.") {
		t.Errorf("decode help missing arguments:\n%s", out)
	}
}
