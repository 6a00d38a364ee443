package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func (a *application) printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[application.printJSON]")
	}
	_, err = fmt.Fprintln(a.out, string(encoded))
	return err
}

// table writes tab separated rows aligned in columns.
func (a *application) table(header string, rows func(w *tabwriter.Writer)) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	return w.Flush()
}

// requireArgs fails with the command usage when fewer than n arguments are given.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		name := c.Command.HelpName
		return cli.Exit(fmt.Sprintf("%s: expected %d argument(s)\nUsage: %s %s", name, n, name, c.Command.ArgsUsage), exitFailure)
	}
	return nil
}

func argInt(c *cli.Context, i int, name string) (int, error) {
	v, err := strconv.Atoi(c.Args().Get(i))
	if err != nil {
		return 0, errors.Wrapf(apperrors.ErrInvalidRequest, "%s must be a number, got %q", name, c.Args().Get(i))
	}
	return v, nil
}

func argInt64(c *cli.Context, i int, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Args().Get(i), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(apperrors.ErrInvalidRequest, "%s must be a number, got %q", name, c.Args().Get(i))
	}
	return v, nil
}
