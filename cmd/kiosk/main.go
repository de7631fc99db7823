// cmd/kiosk/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
)

// @title Kiosk Client Bridge API
// @version 1.0.0
// @description Local bridge between the kiosk page and the receipt printer

// @host 127.0.0.1:8085
// @BasePath /
func main() {
	app := cli.NewApp()
	app.Name = "kiosk"
	app.Usage = "Kiosk receipt printer client"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "Config file; config.yaml in . or /etc/kiosk-client when empty",
			EnvVar: "KIOSK_CONFIG",
		},
	}
	app.Action = runKiosk
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Start the kiosk client (default)",
			Action: runKiosk,
		},
		{
			Name:   "check",
			Usage:  "Open the printer, report its state and paper level",
			Action: checkPrinter,
			Flags: []cli.Flag{
				cli.DurationFlag{
					Name:  "timeout",
					Usage: "Give up on the printer after this long",
					Value: 10 * time.Second,
				},
			},
		},
		{
			Name:      "print",
			Usage:     "Print a UTF-8 text file as a test ticket",
			ArgsUsage: "FILE",
			Action:    printFile,
			Flags: []cli.Flag{
				cli.DurationFlag{
					Name:  "timeout",
					Usage: "Give up on the printer after this long",
					Value: time.Minute,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "kiosk: %v\n", err)
		os.Exit(1)
	}
}
