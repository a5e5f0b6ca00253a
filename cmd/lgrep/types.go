package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/standardbeagle/lgrep/internal/search"

	"github.com/urfave/cli/v2"
)

// typesCommand lists built-in and configured file types
func typesCommand(c *cli.Context) error {
	cfg, err := loadConfig(c, ".")
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}
	list := search.NewEngine(cfg).Normalizer().Types().List()

	if c.Bool("json") {
		return json.NewEncoder(c.App.Writer).Encode(list)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	for _, t := range list {
		name := t.Name
		if len(t.Aliases) > 0 {
			name += " (" + strings.Join(t.Aliases, ", ") + ")"
		}
		exts := make([]string, len(t.Extensions))
		for i, ext := range t.Extensions {
			exts[i] = "*." + ext
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(exts, " "))
	}
	return tw.Flush()
}
