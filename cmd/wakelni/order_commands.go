package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/wakelni-client/carts"
	"github.com/jrsteele09/wakelni-client/complaints"
	"github.com/jrsteele09/wakelni-client/orders"
	"github.com/urfave/cli/v2"
)

func (a *application) cartCommand() *cli.Command {
	return &cli.Command{
		Name:  "cart",
		Usage: "manage the current cart",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "show the cart",
				Action: func(c *cli.Context) error {
					cart, err := a.carts.Get(c.Context)
					if err != nil {
						return err
					}
					return a.printCart(cart)
				},
			},
			{
				Name:      "add",
				Usage:     "add a dish to the cart",
				ArgsUsage: "<dish-id> [quantity]",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					qty := 1
					if c.NArg() > 1 {
						var err error
						if qty, err = argInt(c, 1, "quantity"); err != nil {
							return err
						}
					}
					cart, err := a.carts.Add(c.Context, c.Args().First(), qty)
					if err != nil {
						return err
					}
					return a.printCart(cart)
				},
			},
			{
				Name:      "set",
				Usage:     "change the quantity of a cart line",
				ArgsUsage: "<line-id> <quantity>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 2); err != nil {
						return err
					}
					id, err := argInt64(c, 0, "line id")
					if err != nil {
						return err
					}
					qty, err := argInt(c, 1, "quantity")
					if err != nil {
						return err
					}
					cart, err := a.carts.UpdateItem(c.Context, id, qty)
					if err != nil {
						return err
					}
					return a.printCart(cart)
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a cart line",
				ArgsUsage: "<line-id>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					id, err := argInt64(c, 0, "line id")
					if err != nil {
						return err
					}
					cart, err := a.carts.RemoveItem(c.Context, id)
					if err != nil {
						return err
					}
					return a.printCart(cart)
				},
			},
			{
				Name:  "clear",
				Usage: "empty the cart",
				Action: func(c *cli.Context) error {
					if err := a.carts.Clear(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(a.out, "Cart emptied")
					return nil
				},
			},
		},
	}
}

func (a *application) printCart(cart *carts.Cart) error {
	if len(cart.Lines) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty")
		return nil
	}
	err := a.table("LINE\tDISH\tQTY\tUNIT\tSUBTOTAL", func(w *tabwriter.Writer) {
		for _, l := range cart.Lines {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", l.ID, l.DishName, l.Quantity, l.UnitPrice, l.Subtotal)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d item(s), total %s\n", cart.Count(), cart.Total)
	return nil
}

func (a *application) ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "follow placed or received orders",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list your orders",
				Action: func(c *cli.Context) error {
					list, err := a.orders.Mine(c.Context)
					if err != nil {
						return err
					}
					return a.table("ID\tSTATUS\tTOTAL\tITEMS\tCREATED", func(w *tabwriter.Writer) {
						for _, o := range list {
							names := make([]string, 0, len(o.Lines))
							for _, l := range o.Lines {
								names = append(names, fmt.Sprintf("%dx %s", l.Quantity, l.DishName))
							}
							fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", o.ID, o.Status, o.Total, strings.Join(names, ", "), o.CreatedAt.Format("2006-01-02 15:04"))
						}
					})
				},
			},
			{
				Name:      "status",
				Usage:     "move a received order along (cook)",
				ArgsUsage: fmt.Sprintf("<order-id> <%s>", joinValues(orders.Statuses())),
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 2); err != nil {
						return err
					}
					id, err := argInt64(c, 0, "order id")
					if err != nil {
						return err
					}
					status := orders.Status(strings.ToUpper(c.Args().Get(1)))
					if err := a.orders.ChangeStatus(c.Context, id, status); err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Order %d is now %s\n", id, status)
					return nil
				},
			},
			{
				Name:      "cancel",
				Usage:     "cancel an order that is still being prepared",
				ArgsUsage: "<order-id>",
				Action: func(c *cli.Context) error {
					return a.orderAction(c, a.orders.Cancel)
				},
			},
			{
				Name:      "confirm",
				Usage:     "confirm you received a delivered order",
				ArgsUsage: "<order-id>",
				Action: func(c *cli.Context) error {
					return a.orderAction(c, a.orders.ConfirmReceipt)
				},
			},
		},
	}
}

func (a *application) orderAction(c *cli.Context, action func(ctx context.Context, id int64) (*orders.Acknowledgement, error)) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	id, err := argInt64(c, 0, "order id")
	if err != nil {
		return err
	}
	ack, err := action(c.Context, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, ack.Detail)
	return nil
}

func (a *application) complaintsCommand() *cli.Command {
	return &cli.Command{
		Name:  "complaints",
		Usage: "file and follow complaints about orders",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "complain about one of your orders",
				ArgsUsage: fmt.Sprintf("<order-id> <%s> [description]", joinValues(complaints.Reasons())),
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 2); err != nil {
						return err
					}
					reason := complaints.Reason(strings.ToUpper(c.Args().Get(1)))
					description := strings.Join(c.Args().Slice()[2:], " ")
					complaint, err := a.complaints.Create(c.Context, c.Args().First(), reason, description)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Complaint %s filed\n", complaint.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list your complaints",
				Action: func(c *cli.Context) error {
					list, err := a.complaints.Mine(c.Context)
					if err != nil {
						return err
					}
					return a.printComplaints(list)
				},
			},
			{
				Name:  "received",
				Usage: "list complaints about your dishes (cook)",
				Action: func(c *cli.Context) error {
					list, err := a.complaints.ForCook(c.Context)
					if err != nil {
						return err
					}
					return a.printComplaints(list)
				},
			},
			{
				Name:      "status",
				Usage:     "update a complaint (cook)",
				ArgsUsage: fmt.Sprintf("<complaint-id> <%s>", joinValues(complaints.Statuses())),
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 2); err != nil {
						return err
					}
					status := complaints.Status(strings.ToUpper(c.Args().Get(1)))
					complaint, err := a.complaints.ChangeStatus(c.Context, c.Args().First(), status)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Complaint %s is now %s\n", complaint.ID, complaint.Status)
					return nil
				},
			},
		},
	}
}

func (a *application) printComplaints(list []complaints.Complaint) error {
	return a.table("ID\tORDER\tREASON\tSTATUS\tDATE\tDESCRIPTION", func(w *tabwriter.Writer) {
		for _, cp := range list {
			order := cp.OrderLabel
			if order == "" {
				order = cp.DishName
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", cp.ID, order, cp.Reason, cp.Status, cp.Date.Format("2006-01-02"), cp.Description)
		}
	})
}

func (a *application) checkoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "checkout",
		Usage: "pay for the current cart",
		Subcommands: []*cli.Command{
			{
				Name:  "start",
				Usage: "create a payment page for the cart",
				Action: func(c *cli.Context) error {
					checkout, err := a.payments.CreateCheckoutSession(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Open this page to pay:\n%s\n", checkout.URL)
					return nil
				},
			},
			{
				Name:      "confirm",
				Usage:     "confirm a completed payment",
				ArgsUsage: "<session-id>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					invoice, err := a.payments.Confirm(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					return a.printJSON(invoice)
				},
			},
		},
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}
