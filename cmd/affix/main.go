package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/satindergrewal/affix/internal/cli"
	"github.com/satindergrewal/affix/internal/config"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Globals

	Serve  ServeCmd  `cmd:"" help:"Play the music directory with silence between tracks."`
	Preset PresetCmd `cmd:"" help:"Inspect or change the stored silence preset."`
}

// Globals are flags shared by every command.
type Globals struct {
	Version   versionFlag `short:"v" help:"Show version information."`
	Env       string      `type:"path" placeholder:"FILE" help:"Load settings from this .env file instead of ./.env."`
	PresetDir string      `type:"path" placeholder:"DIR" help:"Preset directory, overrides AFFIX_PRESET_DIR."`
}

// config loads configuration and applies flag overrides.
func (g *Globals) config() (config.Config, error) {
	var cfg config.Config
	if g.Env != "" {
		var err error
		if cfg, err = config.LoadFile(g.Env); err != nil {
			return config.Config{}, err
		}
	} else {
		cfg = config.Load()
	}
	if g.PresetDir != "" {
		cfg.PresetDir = g.PresetDir
	}
	return cfg, nil
}

type versionFlag bool

func (versionFlag) BeforeReset(app *kong.Kong) error {
	cli.PrintVersion(version)
	app.Exit(0)
	return nil
}

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("affix"),
		kong.Description("Inserts silence between tracks of a music stream"),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if err := ctx.Run(&c.Globals); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}
