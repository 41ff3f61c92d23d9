package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/brunoga/scim/internal/errors"
	"github.com/brunoga/scim/internal/log"
	"github.com/brunoga/scim/patch"
)

func (a *application) patchCommand() *cli.Command {
	return &cli.Command{
		Name:      "patch",
		Usage:     "Apply a SCIM PATCH request to a resource",
		ArgsUsage: "RESOURCE",
		Description: `Applies the PatchOp message in the --request file to the JSON resource and
prints the result. The resource is read from standard input when RESOURCE is
"-". With --in-place the resource file is rewritten instead. A request that
fails part way leaves the resource untouched.

Example:
  scim patch --request disable.json --in-place user.json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "request",
				Aliases:  []string{"r"},
				Usage:    "File holding the PatchOp request",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "in-place",
				Aliases: []string{"i"},
				Usage:   "Rewrite the resource file",
			},
		},
		Action: action(a.runPatch),
	}
}

func (a *application) runPatch(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.Errorf("expected exactly one resource, got %d", c.NArg())
	}
	target := c.Args().First()
	if target == "-" && c.Bool("in-place") {
		return errors.Errorf("--in-place needs a resource file")
	}

	data, err := os.ReadFile(c.String("request"))
	if err != nil {
		return errors.WithStackTrace(err)
	}
	var req patch.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	doc, err := a.readResource(target)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"resource": target, "operations": len(req.Operations)}).Debug("Applying patch request")

	out, err := req.ApplyCopy(doc)
	if err != nil {
		return err
	}

	if !c.Bool("in-place") {
		return a.encoder(c.App.Writer).Encode(out)
	}

	var buf bytes.Buffer
	if err := a.encoder(&buf).Encode(out); err != nil {
		return errors.WithStackTrace(err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	if err := os.WriteFile(target, buf.Bytes(), info.Mode().Perm()); err != nil {
		return errors.WithStackTrace(err)
	}
	log.WithFields(log.Fields{"resource": target}).Info("Resource updated")
	return nil
}

func (a *application) readResource(name string) (map[string]any, error) {
	var r io.Reader = a.stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}
		defer file.Close()
		r = file
	}

	var doc map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Errorf("%s: %w", name, err)
	}
	if doc == nil {
		return nil, errors.Errorf("%s: expected a JSON object", name)
	}
	return doc, nil
}
