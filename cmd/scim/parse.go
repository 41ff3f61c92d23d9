package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/brunoga/scim"
	"github.com/brunoga/scim/internal/errors"
)

type elementJSON struct {
	Attribute string          `json:"attribute"`
	Filter    json.RawMessage `json:"filter,omitempty"`
}

type pathJSON struct {
	Namespace string        `json:"namespace,omitempty"`
	Elements  []elementJSON `json:"elements"`
}

func (a *application) parseCommand() *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Parse a filter or an attribute path and print its canonical form",
		Description: `Parses the expression given with --filter or --path. On success the canonical
form is printed, or the expression tree when --json is set. Syntax errors are
reported with a caret under the offending position and exit with status 2.

Example:
  scim parse --filter 'emails[type eq "work" and value co "@example.com"]'`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Filter expression",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Attribute path",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the parsed tree as JSON",
			},
		},
		Action: action(a.runParse),
	}
}

func (a *application) runParse(c *cli.Context) error {
	switch {
	case c.IsSet("filter") && c.IsSet("path"):
		return errors.Errorf("--filter and --path are mutually exclusive")
	case c.IsSet("filter"):
		return a.printFilter(c, c.String("filter"))
	case c.IsSet("path"):
		return a.printPath(c, c.String("path"))
	}
	return errors.Errorf("one of --filter or --path is required")
}

func (a *application) printFilter(c *cli.Context, expr string) error {
	f, err := scim.ParseFilter(expr, a.cfg.ParseOptions()...)
	if err != nil {
		return err
	}
	if !c.Bool("json") {
		_, err := fmt.Fprintln(c.App.Writer, f.String())
		return err
	}

	data, err := scim.MarshalFilterJSON(f)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	return a.encoder(c.App.Writer).Encode(json.RawMessage(data))
}

func (a *application) printPath(c *cli.Context, expr string) error {
	p, err := scim.ParsePath(expr, a.cfg.ParseOptions()...)
	if err != nil {
		return err
	}
	if !c.Bool("json") {
		_, err := fmt.Fprintln(c.App.Writer, p.String())
		return err
	}

	out := pathJSON{Namespace: p.Namespace(), Elements: []elementJSON{}}
	for _, e := range p.Elements() {
		elem := elementJSON{Attribute: e.Attribute()}
		if e.Filter() != nil {
			data, err := scim.MarshalFilterJSON(e.Filter())
			if err != nil {
				return errors.WithStackTrace(err)
			}
			elem.Filter = data
		}
		out.Elements = append(out.Elements, elem)
	}
	return a.encoder(c.App.Writer).Encode(out)
}
