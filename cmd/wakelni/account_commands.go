package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/wakelni-client/credentials"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/jrsteele09/wakelni-client/internal/utils"
	"github.com/jrsteele09/wakelni-client/users"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func (a *application) loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "sign in with an email or username",
		ArgsUsage: "<email|username>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"WAKELNI_PASSWORD"}, Usage: "password; read from stdin when omitted"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			password := c.String("password")
			if password == "" {
				var err error
				if password, err = a.readLine("Password: "); err != nil {
					return err
				}
			}

			user, err := a.users.Login(c.Context, c.Args().First(), password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s (%s)\n", user.DisplayName(), user.Role)
			return nil
		},
	}
}

func (a *application) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored session",
		Action: func(c *cli.Context) error {
			a.users.Logout(c.Context)
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func (a *application) whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the stored session",
		Action: func(c *cli.Context) error {
			session, err := a.users.Current(c.Context)
			if errors.Is(err, apperrors.ErrNotLoggedIn) {
				return cli.Exit("Not signed in", exitFailure)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "User:  %s\n", session.Username)
			fmt.Fprintf(a.out, "Email: %s\n", session.Email)
			fmt.Fprintf(a.out, "Role:  %s\n", session.Role)
			if name := strings.TrimSpace(session.FirstName + " " + session.LastName); name != "" {
				fmt.Fprintf(a.out, "Name:  %s\n", name)
			}
			remaining, err := session.AccessExpiresIn(time.Now())
			switch {
			case err != nil:
				fmt.Fprintln(a.out, "Access token expiry unknown")
			case remaining <= 0:
				fmt.Fprintln(a.out, "Access token expired; it will be renewed on the next request")
			default:
				fmt.Fprintf(a.out, "Access token expires in %s\n", remaining.Round(time.Second))
			}
			return nil
		},
	}
}

func (a *application) registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", EnvVars: []string{"WAKELNI_PASSWORD"}, Usage: "read from stdin when omitted"},
			&cli.StringFlag{Name: "first-name"},
			&cli.StringFlag{Name: "last-name"},
			&cli.StringFlag{Name: "role", Value: string(users.RoleClient), Usage: "CLIENT or CUISINIER"},
		},
		Action: func(c *cli.Context) error {
			password := c.String("password")
			if password == "" {
				var err error
				if password, err = a.readLine("Password: "); err != nil {
					return err
				}
			}

			user, err := a.users.Register(c.Context, users.RegisterRequest{
				Username:  c.String("username"),
				Email:     c.String("email"),
				Password:  password,
				FirstName: c.String("first-name"),
				LastName:  c.String("last-name"),
				Role:      users.RoleType(strings.ToUpper(c.String("role"))),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Account %s created, you can now sign in\n", user.Username)
			return nil
		},
	}
}

func (a *application) profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "view or edit the signed-in account",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "fetch the profile from the backend",
				Action: func(c *cli.Context) error {
					user, err := a.users.Me(c.Context)
					if err != nil {
						return err
					}
					return a.printJSON(user)
				},
			},
			{
				Name:  "update",
				Usage: "change profile fields",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
					&cli.StringFlag{Name: "avatar-url"},
					&cli.StringFlag{Name: "address", Usage: "main address (client) or pickup address (cook)"},
					&cli.StringFlag{Name: "preferences"},
					&cli.StringFlag{Name: "bio"},
				},
				Action: func(c *cli.Context) error {
					update := users.ProfileUpdate{
						FirstName:   stringFlag(c, "first-name"),
						LastName:    stringFlag(c, "last-name"),
						AvatarURL:   stringFlag(c, "avatar-url"),
						Preferences: stringFlag(c, "preferences"),
						Bio:         stringFlag(c, "bio"),
					}
					if addr := stringFlag(c, "address"); addr != nil {
						if a.cachedRole(c) == string(users.RoleCook) {
							update.Address = addr
						} else {
							update.MainAddress = addr
						}
					}
					user, err := a.users.UpdateMe(c.Context, update)
					if err != nil {
						return err
					}
					return a.printJSON(user)
				},
			},
			{
				Name:  "deactivate",
				Usage: "deactivate the signed-in cook account",
				Action: func(c *cli.Context) error {
					if err := a.users.Deactivate(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(a.out, "Account deactivated")
					return nil
				},
			},
		},
	}
}

func (a *application) cachedRole(c *cli.Context) string {
	role, _, err := credentials.Lookup(c.Context, a.store, credentials.RoleKey)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Could not read cached role")
	}
	return role
}

func (a *application) readLine(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" && err != nil {
		return "", errors.Wrap(err, "[application.readLine]")
	}
	return line, nil
}

func stringFlag(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	return utils.Ptr(c.String(name))
}
