package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/wakelni-client/dishes"
	"github.com/jrsteele09/wakelni-client/internal/utils"
	"github.com/jrsteele09/wakelni-client/reviews"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func dishFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: required},
		&cli.StringFlag{Name: "price", Required: required, Usage: "price in CAD, e.g. 14.50"},
		&cli.IntFlag{Name: "stock", Required: required},
		&cli.StringFlag{Name: "city", Required: required},
		&cli.StringFlag{Name: "address", Required: required, Usage: "pickup address"},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "ingredients"},
		&cli.StringFlag{Name: "tags", Usage: "comma separated"},
		&cli.StringFlag{Name: "photo", Usage: "path to an image file"},
	}
}

func (a *application) dishesCommand() *cli.Command {
	return &cli.Command{
		Name:  "dishes",
		Usage: "browse and publish dishes",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list the available dishes",
				Action: func(c *cli.Context) error {
					list, err := a.dishes.List(c.Context)
					if err != nil {
						return err
					}
					return a.printDishes(list)
				},
			},
			{
				Name:      "show",
				Usage:     "show a dish and its reviews",
				ArgsUsage: "<dish-id>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					dish, err := a.dishes.Get(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					published, err := a.reviews.ForDish(c.Context, dish.ID)
					if err != nil {
						return err
					}
					return a.printJSON(struct {
						*dishes.Dish
						AverageNote float64                   `json:"note_moyenne"`
						Reviews     []reviews.PublishedReview `json:"avis"`
					}{dish, reviews.Average(published), published})
				},
			},
			{
				Name:  "mine",
				Usage: "list the dishes published by the signed-in cook",
				Action: func(c *cli.Context) error {
					list, err := a.dishes.Mine(c.Context)
					if err != nil {
						return err
					}
					return a.printDishes(list)
				},
			},
			{
				Name:  "create",
				Usage: "publish a dish",
				Flags: append(dishFlags(true), &cli.BoolFlag{Name: "inactive", Usage: "publish hidden from the catalogue"}),
				Action: func(c *cli.Context) error {
					photo, err := readPhoto(c.String("photo"))
					if err != nil {
						return err
					}
					dish, err := a.dishes.Create(c.Context, dishes.NewDish{
						Name:        c.String("name"),
						Description: c.String("description"),
						Ingredients: c.String("ingredients"),
						Price:       c.String("price"),
						Stock:       c.Int("stock"),
						City:        c.String("city"),
						Address:     c.String("address"),
						Tags:        c.String("tags"),
						Inactive:    c.Bool("inactive"),
						Photo:       photo,
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Dish %s published (%s)\n", dish.Name, dish.ID)
					return nil
				},
			},
			{
				Name:      "update",
				Usage:     "change a dish; only the given flags are sent",
				ArgsUsage: "<dish-id>",
				Flags:     append(dishFlags(false), &cli.BoolFlag{Name: "active", Usage: "show or hide the dish"}),
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					photo, err := readPhoto(c.String("photo"))
					if err != nil {
						return err
					}
					update := dishes.DishUpdate{
						Name:        stringFlag(c, "name"),
						Description: stringFlag(c, "description"),
						Ingredients: stringFlag(c, "ingredients"),
						Price:       stringFlag(c, "price"),
						City:        stringFlag(c, "city"),
						Address:     stringFlag(c, "address"),
						Tags:        stringFlag(c, "tags"),
						Photo:       photo,
					}
					if c.IsSet("stock") {
						update.Stock = utils.Ptr(c.Int("stock"))
					}
					if c.IsSet("active") {
						update.Active = utils.Ptr(c.Bool("active"))
					}
					dish, err := a.dishes.Update(c.Context, c.Args().First(), update)
					if err != nil {
						return err
					}
					return a.printJSON(dish)
				},
			},
			{
				Name:      "delete",
				Usage:     "remove a dish",
				ArgsUsage: "<dish-id>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					if err := a.dishes.Delete(c.Context, c.Args().First()); err != nil {
						return err
					}
					fmt.Fprintln(a.out, "Dish deleted")
					return nil
				},
			},
		},
	}
}

func (a *application) printDishes(list []dishes.Dish) error {
	return a.table("ID\tNAME\tPRICE\tSTOCK\tCITY\tCOOK", func(w *tabwriter.Writer) {
		for _, d := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", d.ID, d.Name, d.Price, d.Stock, d.City, d.Cook)
		}
	})
}

func readPhoto(path string) (*dishes.Photo, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "[readPhoto]")
	}
	return &dishes.Photo{Filename: filepath.Base(path), Content: content}, nil
}

func (a *application) reviewsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reviews",
		Usage: "rate dishes you ordered",
		Subcommands: []*cli.Command{
			{
				Name:      "leave",
				Usage:     "leave or replace your review of a dish",
				ArgsUsage: "<dish-id> <note 1-5> [comment]",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 2); err != nil {
						return err
					}
					note, err := argInt(c, 1, "note")
					if err != nil {
						return err
					}
					comment := strings.Join(c.Args().Slice()[2:], " ")
					review, err := a.reviews.Leave(c.Context, c.Args().First(), note, comment)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Review saved: %d/%d\n", review.Note, reviews.MaxNote)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "show your review of a dish",
				ArgsUsage: "<dish-id>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					review, err := a.reviews.Existing(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					if review == nil {
						fmt.Fprintln(a.out, "You have not reviewed this dish yet")
						return nil
					}
					return a.printJSON(review)
				},
			},
			{
				Name:  "received",
				Usage: "list the reviews of the signed-in cook's dishes",
				Action: func(c *cli.Context) error {
					list, err := a.reviews.ForCook(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Average note: %.1f (%d reviews)\n", reviews.Average(list), len(list))
					return a.table("DISH\tNOTE\tCLIENT\tCOMMENT", func(w *tabwriter.Writer) {
						for _, r := range list {
							fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.DishName, r.Note, r.ClientEmail, r.Comment)
						}
					})
				},
			},
		},
	}
}
