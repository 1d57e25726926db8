package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Aggregate the feeds once and print the result as JSON",
		Description: `Runs the same aggregation as GET /api/rss and writes the JSON
array to stdout. Log messages go to stderr.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Indent the JSON output",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			items, err := newAggregator(cfg).Aggregate(c.Context)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			if c.Bool("pretty") {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(items)
		},
		Before: func(c *cli.Context) error {
			// stdout is reserved for the JSON result
			loggerToStderr()
			return nil
		},
	}
}
