package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/brunoga/scim"
	"github.com/brunoga/scim/internal/errors"
	"github.com/brunoga/scim/internal/log"
)

func (a *application) filterCommand() *cli.Command {
	return &cli.Command{
		Name:      "filter",
		Usage:     "Print the resources matching a filter",
		ArgsUsage: "[FILE...]",
		Description: `Reads JSON resources from the given files, or from standard input when no file
or "-" is given. Each input may hold a single resource, an array of resources or
one resource per line. Matching resources are printed one per line.

Example:
  scim filter --expr 'emails[type eq "work"]' --select userName users.json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "expr",
				Aliases:  []string{"e"},
				Usage:    "Filter expression",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Print the number of matching resources only",
			},
			&cli.StringFlag{
				Name:    "select",
				Aliases: []string{"s"},
				Usage:   "Print the values at this attribute path instead of whole resources",
			},
		},
		Action: action(a.runFilter),
	}
}

func (a *application) runFilter(c *cli.Context) error {
	f, err := scim.ParseFilter(c.String("expr"), a.cfg.ParseOptions()...)
	if err != nil {
		return err
	}

	var selectPath *scim.Path
	if c.IsSet("select") {
		p, err := scim.ParsePath(c.String("select"), a.cfg.ParseOptions()...)
		if err != nil {
			return err
		}
		selectPath = &p
	}

	files := c.Args().Slice()
	if len(files) == 0 {
		files = []string{"-"}
	}

	enc := a.encoder(c.App.Writer)
	matched := 0
	for _, name := range files {
		err := a.readResources(name, func(doc map[string]any) error {
			if !scim.Evaluate(f, doc) {
				return nil
			}
			matched++
			switch {
			case c.Bool("count"):
				return nil
			case selectPath != nil:
				values := scim.Values(*selectPath, doc)
				if values == nil {
					values = []any{}
				}
				return enc.Encode(values)
			}
			return enc.Encode(doc)
		})
		if err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{"filter": f.String(), "matched": matched}).Debug("Filtered resources")
	if c.Bool("count") {
		_, err := fmt.Fprintln(c.App.Writer, matched)
		return err
	}
	return nil
}

// readResources decodes every JSON value of the named input and passes each resource it holds to fn.
func (a *application) readResources(name string, fn func(map[string]any) error) error {
	var r io.Reader = a.stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return errors.WithStackTrace(err)
		}
		defer file.Close()
		r = file
	}
	log.WithFields(log.Fields{"input": name}).Debug("Reading resources")

	dec := json.NewDecoder(r)
	for {
		var v any
		if err := dec.Decode(&v); err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Errorf("%s: %w", name, err)
		}

		switch v := v.(type) {
		case map[string]any:
			if err := fn(v); err != nil {
				return err
			}
		case []any:
			for i, e := range v {
				doc, ok := e.(map[string]any)
				if !ok {
					return errors.Errorf("%s: array element %d is not a JSON object", name, i)
				}
				if err := fn(doc); err != nil {
					return err
				}
			}
		default:
			return errors.Errorf("%s: expected a JSON object or array", name)
		}
	}
}
