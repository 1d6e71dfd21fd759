package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "wfseller",
		Usage: "Post, price and hide warframe.market augment listings from the command line.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "Path to the YAML configuration file",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and store a fresh session token",
				Action: loginAction,
			},
			{
				Name:   "refresh-catalog",
				Usage:  "Rebuild the local item catalog from game data and the marketplace",
				Action: refreshCatalogAction,
			},
			{
				Name:   "seed",
				Usage:  "Add every augment and its syndicates to the listings database",
				Action: seedAction,
			},
			{
				Name:      "lookup",
				Usage:     "Print the catalogued marketplace id of an item",
				ArgsUsage: "<item name>",
				Action:    lookupAction,
			},
			{
				Name:      "price",
				Usage:     "Print the 48 hour average sell price of an item",
				ArgsUsage: "<item name>",
				Action:    priceAction,
			},
			{
				Name:      "sell",
				Usage:     "Post or reprice sell orders",
				ArgsUsage: "<item name>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "price", Usage: "Price in platinum, defaults to the 48 hour average"},
					&cli.IntFlag{Name: "quantity", Value: 1, Usage: "Number of items to list"},
					&cli.StringFlag{Name: "file", Usage: "Batch file with lines of <name>,<price|avg>[,<quantity>]"},
				},
				Action: sellAction,
			},
			{
				Name:      "delete",
				Usage:     "Remove the sell order of an item",
				ArgsUsage: "<item name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "order", Usage: "Delete this order id instead of looking it up"},
				},
				Action: deleteAction,
			},
			{
				Name:   "sync",
				Usage:  "Show or hide orders once based on exhausted syndicates",
				Action: syncAction,
			},
			{
				Name:  "watch",
				Usage: "Keep order visibility in sync until interrupted",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Usage: "Override sync_interval_minutes"},
				},
				Action: watchAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
