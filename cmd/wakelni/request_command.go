package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/wakelni-client/apiclient"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func (a *application) requestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "send a raw request through the authenticated pipeline",
		ArgsUsage: "<METHOD> <path> [json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-auth", Usage: "send without credentials"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2); err != nil {
				return err
			}
			req := apiclient.Request{
				Method: strings.ToUpper(c.Args().Get(0)),
				Path:   c.Args().Get(1),
				NoAuth: c.Bool("no-auth"),
			}
			if body := c.Args().Get(2); body != "" {
				if !json.Valid([]byte(body)) {
					return errors.Wrap(apperrors.ErrInvalidRequest, "body is not valid JSON")
				}
				req.Body = json.RawMessage(body)
			}

			raw, err := a.client.Do(c.Context, req)
			if err != nil {
				return err
			}
			if raw == nil {
				fmt.Fprintln(a.out, "(empty response)")
				return nil
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				return errors.Wrap(err, "[request] Indent")
			}
			fmt.Fprintln(a.out, pretty.String())
			return nil
		},
	}
}
