package commands

import (
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docmirror/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory for the generated docmirror.yaml"`

	out io.Writer
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	w := i.out
	if w == nil {
		w = os.Stdout
	}
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, "docmirror.yaml")
	}
	return RunInit(w, path, i.Force)
}

// RunInit writes the example configuration to configPath.
func RunInit(w io.Writer, configPath string, force bool) error {
	printf(w, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		printf(w, "Initialization failed\n")
		return err
	}
	printf(w, "initialized successfully\n")
	return nil
}
