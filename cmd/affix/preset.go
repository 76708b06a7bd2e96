package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/satindergrewal/affix/internal/cli"
	"github.com/satindergrewal/affix/internal/preset"
	"github.com/satindergrewal/affix/internal/presetstore"
)

// PresetCmd groups the preset subcommands.
type PresetCmd struct {
	Show   presetShowCmd   `cmd:"" help:"Print the stored silence preset."`
	Edit   presetEditCmd   `cmd:"" help:"Change the stored silence preset."`
	Reset  presetResetCmd  `cmd:"" help:"Restore the default silence preset."`
	Decode presetDecodeCmd `cmd:"" help:"Decode a preset blob file."`
}

func openStore(g *Globals) (*presetstore.Store, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	return presetstore.Open(cfg.PresetDir, zap.NewNop())
}

type presetShowCmd struct{}

func (c *presetShowCmd) Run(g *Globals) error {
	store, err := openStore(g)
	if err != nil {
		return err
	}
	p, err := store.LoadParams()
	if errors.Is(err, preset.ErrFormat) {
		cli.PrintWarning(fmt.Sprintf("%v; showing defaults", err))
	} else if err != nil {
		return err
	}
	fmt.Println(cli.TitleStyle.Render(store.Path(preset.OwnerID)))
	cli.PrintParams(os.Stdout, p)
	return nil
}

// presetEditCmd takes durations as text so out-of-range input can be
// reported and reverted instead of failing the parse.
type presetEditCmd struct {
	Pre  string  `placeholder:"MS" help:"Silence before each track, in milliseconds."`
	Post string  `placeholder:"MS" help:"Silence after each track, in milliseconds."`
	Skip *string `placeholder:"LIST" help:"Path fragments to leave alone, separated by ';'."`
}

func (c *presetEditCmd) Run(g *Globals) error {
	store, err := openStore(g)
	if err != nil {
		return err
	}
	current, err := store.LoadParams()
	if errors.Is(err, preset.ErrFormat) {
		cli.PrintWarning(fmt.Sprintf("%v; editing defaults", err))
	} else if err != nil {
		return err
	}

	e := preset.ParseEdit(c.Pre, c.Post, "")
	e.SkipSubpaths = c.Skip
	next, rejected := current.Apply(e)
	cli.PrintRejected(os.Stderr, rejected)

	if next.Equal(current) && err == nil {
		fmt.Println("Preset unchanged.")
		cli.PrintParams(os.Stdout, current)
		return nil
	}
	if err := store.SaveParams(next); err != nil {
		return err
	}
	fmt.Println(cli.TitleStyle.Render("Preset saved"))
	cli.PrintParams(os.Stdout, next)
	return nil
}

type presetResetCmd struct{}

func (c *presetResetCmd) Run(g *Globals) error {
	store, err := openStore(g)
	if err != nil {
		return err
	}
	if err := store.Save(preset.DefaultBlob()); err != nil {
		return err
	}
	fmt.Println(cli.TitleStyle.Render("Preset reset"))
	cli.PrintParams(os.Stdout, preset.Default())
	return nil
}

type presetDecodeCmd struct {
	File string `arg:"" type:"existingfile" help:"Blob file to decode."`
}

func (c *presetDecodeCmd) Run(g *Globals) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	p, err := preset.Decode(data)
	if err != nil {
		return err
	}
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("%s (%d bytes)", c.File, len(data))))
	cli.PrintParams(os.Stdout, p)
	return nil
}
