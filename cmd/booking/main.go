package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/application"
	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	"github.com/mateusmacedo/go-seatbooking/internal/config"
	pkgInfra "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure"
	zapAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/zaplogger/adapter"
)

const (
	nameFlag     = "name"
	passwordFlag = "password"
	fromFlag     = "from"
	toFlag       = "to"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: nameFlag, Usage: "user name", Required: true},
		&cli.StringFlag{Name: passwordFlag, Usage: "user password", Required: true, EnvVars: []string{config.EnvPrefix + "_PASSWORD"}},
	}
}

func routeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: fromFlag, Usage: "boarding stop", Required: true},
		&cli.StringFlag{Name: toFlag, Usage: "alighting stop", Required: true},
	}
}

func newApp(out io.Writer) *cli.App {
	var rt *runtime

	// withSession runs action for the logged-in user and logs out afterwards.
	withSession := func(c *cli.Context, action func(user domain.User) error) error {
		session, err := rt.slice.OpenSession(c.Context, c.String(nameFlag), c.String(passwordFlag))
		if err != nil {
			return err
		}
		defer rt.slice.Logout(c.Context, session)

		user, _ := session.User()
		return action(user)
	}

	return &cli.App{
		Name:      "booking",
		Usage:     "Reserve seats on scheduled vehicles",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML config file",
				EnvVars: []string{config.EnvPrefix + "_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			c.Context = tagRun(c.Context)
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			rt, err = newRuntime(c.Context, cfg)
			return err
		},
		After: func(c *cli.Context) error {
			if rt == nil {
				return nil
			}
			return rt.Close()
		},
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "register a user",
				Flags: credentialFlags(),
				Action: func(c *cli.Context) error {
					id, err := rt.slice.SignUp(c.Context, c.String(nameFlag), c.String(passwordFlag))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "registered %s as %s\n", c.String(nameFlag), id)
					return nil
				},
			},
			{
				Name:  "login",
				Usage: "check credentials",
				Flags: credentialFlags(),
				Action: func(c *cli.Context) error {
					user, err := rt.slice.Login(c.Context, c.String(nameFlag), c.String(passwordFlag))
					if err != nil {
						return fmt.Errorf("login: %w", err)
					}
					fmt.Fprintf(c.App.Writer, "logged in as %s (%s)\n", user.Name, user.ID)
					return nil
				},
			},
			{
				Name:  "search",
				Usage: "list vehicles serving from -> to",
				Flags: routeFlags(),
				Action: func(c *cli.Context) error {
					found, err := rt.slice.SearchVehicles(c.Context, c.String(fromFlag), c.String(toFlag))
					if err != nil {
						return err
					}
					if len(found) == 0 {
						fmt.Fprintln(c.App.Writer, "no vehicles found")
						return nil
					}
					for _, v := range found {
						fmt.Fprintf(c.App.Writer, "%s route: %s\n", v.Info(), strings.Join(v.Stops, " -> "))
					}
					return nil
				},
			},
			{
				Name:      "seats",
				Usage:     "show the seat grid of a vehicle",
				ArgsUsage: "<vehicle_id>",
				Action: func(c *cli.Context) error {
					grid, err := rt.slice.FetchSeats(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, grid.String())
					return nil
				},
			},
			{
				Name:  "book",
				Usage: "reserve a seat (row and col start at 1)",
				Flags: append(append(credentialFlags(), routeFlags()...),
					&cli.StringFlag{Name: "vehicle", Usage: "vehicle id", Required: true},
					&cli.IntFlag{Name: "row", Usage: "seat row", Required: true},
					&cli.IntFlag{Name: "col", Usage: "seat column", Required: true},
				),
				Action: func(c *cli.Context) error {
					return withSession(c, func(user domain.User) error {
						ticket, err := rt.slice.BookSeat(c.Context, application.BookSeatRequest{
							VehicleID:   c.String("vehicle"),
							Row:         c.Int("row") - 1,
							Col:         c.Int("col") - 1,
							UserID:      user.ID,
							Source:      c.String(fromFlag),
							Destination: c.String(toFlag),
						})
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, ticket.Info())
						return nil
					})
				},
			},
			{
				Name:  "cancel",
				Usage: "cancel a booking",
				Flags: append(credentialFlags(),
					&cli.StringFlag{Name: "ticket", Usage: "ticket id", Required: true},
				),
				Action: func(c *cli.Context) error {
					ticketID := c.String("ticket")
					cancelled, err := rt.slice.CancelBooking(c.Context, ticketID, application.Credentials{
						Name:     c.String(nameFlag),
						Password: c.String(passwordFlag),
					})
					if !cancelled {
						return fmt.Errorf("cancel %s: %w", ticketID, err)
					}
					if rt.slice.ReleasesSeatOnCancel() {
						fmt.Fprintf(c.App.Writer, "cancelled %s, seat released\n", ticketID)
					} else {
						fmt.Fprintf(c.App.Writer, "cancelled %s\n", ticketID)
					}
					return nil
				},
			},
			{
				Name:  "bookings",
				Usage: "list the tickets of a user",
				Flags: credentialFlags(),
				Action: func(c *cli.Context) error {
					return withSession(c, func(user domain.User) error {
						tickets, err := rt.slice.ListBookings(c.Context, user.ID)
						if err != nil {
							return err
						}
						if len(tickets) == 0 {
							fmt.Fprintln(c.App.Writer, "no bookings")
							return nil
						}
						for _, t := range tickets {
							fmt.Fprintln(c.App.Writer, t.Info())
						}
						return nil
					})
				},
			},
			{
				Name:  "audit",
				Usage: "compare booked seats with issued tickets",
				Action: func(c *cli.Context) error {
					report, err := rt.slice.Audit(c.Context)
					if err != nil {
						return err
					}
					if report.Consistent() {
						fmt.Fprintln(c.App.Writer, "consistent")
						return nil
					}
					for _, o := range report.OrphanTickets {
						fmt.Fprintf(c.App.Writer, "orphan ticket %s of user %s on %s seat %d-%d: %s\n",
							o.TicketID, o.UserID, o.VehicleID, o.Row+1, o.Col+1, o.Reason)
					}
					for _, d := range report.UnticketedSeats {
						fmt.Fprintf(c.App.Writer, "vehicle %s: %d booked seats, %d tickets\n", d.VehicleID, d.BookedSeats, d.Tickets)
					}
					return cli.Exit("documents disagree", 2)
				},
			},
			{
				Name:      "import-vehicles",
				Usage:     "merge a vehicles document into the store",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					n, err := rt.importVehicles(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "imported %d vehicles\n", n)
					return nil
				},
			},
		},
	}
}

// tagRun gives every log entry of one invocation the same request id.
func tagRun(ctx context.Context) context.Context {
	return zapAdapter.WithRequestID(ctx, pkgInfra.GenerateUUID())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
