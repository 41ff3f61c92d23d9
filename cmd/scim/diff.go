package main

import (
	"github.com/urfave/cli/v2"

	"github.com/brunoga/scim/internal/errors"
	"github.com/brunoga/scim/internal/log"
	"github.com/brunoga/scim/patch"
)

func (a *application) diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Print the PATCH request turning one resource into another",
		ArgsUsage: "FROM TO",
		Description: `Compares two versions of a JSON resource and prints the PatchOp request that
turns FROM into TO. Nothing is printed when the resources are equal.

Example:
  scim diff --ignore meta.lastModified old.json new.json`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "Attribute path whose changes are ignored (repeatable)",
			},
		},
		Action: action(a.runDiff),
	}
}

func (a *application) runDiff(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.Errorf("expected two resources, got %d", c.NArg())
	}

	from, err := a.readResource(c.Args().Get(0))
	if err != nil {
		return err
	}
	to, err := a.readResource(c.Args().Get(1))
	if err != nil {
		return err
	}

	var opts []patch.DiffOption
	for _, path := range c.StringSlice("ignore") {
		opts = append(opts, patch.DiffIgnorePath(path))
	}

	req, err := patch.Diff(from, to, opts...)
	if err != nil {
		return err
	}
	if req == nil {
		log.Infof("Resources are equal")
		return nil
	}
	return a.encoder(c.App.Writer).Encode(req)
}
