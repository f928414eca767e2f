package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rtadmit",
		Usage: "admission control for fixed-priority periodic task sets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "task set YAML file",
				Value:   "tasks.yml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "overrides log.level",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "overrides log.format (text or json)",
			},
		},
		Commands: []*cli.Command{
			admitCommand(),
			simulateCommand(),
		},
	}
}
