package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/CodyStringham/volt-blog-sub000/reactive"
	"github.com/CodyStringham/volt-blog-sub000/report"
	"github.com/CodyStringham/volt-blog-sub000/scenario"
)

const (
	verboseKey  = "verbose"
	fileKey     = "file"
	reportKey   = "report"
	isolatedKey = "isolate"
)

func main() {
	cmd := &cli.Command{
		Name:      "replay",
		Usage:     "Replay a reactive scenario and print what every watcher saw",
		ArgsUsage: "[scenario.yaml]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    fileKey,
				Aliases: []string{"f"},
				Usage:   "Scenario file, - reads stdin",
			},
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log every flush pass",
			},
			&cli.BoolFlag{
				Name:  reportKey,
				Usage: "Print the subscription report after the trace",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  isolatedKey,
				Usage: "Keep flushing when a watcher fails instead of aborting",
			},
		},
		Action: replay,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func replay(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool(verboseKey) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	path := cmd.String(fileKey)
	if path == "" {
		path = cmd.Args().First()
	}
	if path == "" {
		return errors.New("a scenario file is required")
	}

	sc, err := load(path)
	if err != nil {
		return err
	}

	opts := []reactive.Option{reactive.WithLogger(logger)}
	if cmd.Bool(isolatedKey) {
		opts = append(opts, reactive.WithErrorHandler(func(c *reactive.Computation, err error) {
			logger.Warn("watcher failed", "watcher", c.Name(), "err", err)
		}))
	}

	start := time.Now()
	logger.Info("replaying", "scenario", sc.Name, "steps", len(sc.Steps))
	res, err := scenario.Run(ctx, sc, opts...)
	if res == nil {
		return err
	}
	logger.Info("replayed", "scenario", sc.Name, "events", len(res.Trace), "took", time.Since(start))

	out := os.Stdout
	for _, line := range res.Lines() {
		fmt.Fprintln(out, line)
	}
	if cmd.Bool(reportKey) {
		fmt.Fprintln(out)
		report.Write(out, res.Runtime, report.Model(sc.Name, res.Model))
	}
	fmt.Fprintln(out)
	counters(out, res)

	return err
}

func load(path string) (*scenario.Scenario, error) {
	if path == "-" {
		return scenario.Load(os.Stdin)
	}
	return scenario.LoadFile(path)
}

func counters(w io.Writer, res *scenario.Result) {
	stats := res.Runtime.Stats()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"watcher", "runs", "state"})
	for _, name := range res.Order {
		c := res.Watchers[name]
		state := "idle"
		switch {
		case c.Stopped():
			state = "stopped"
		case c.Invalidated():
			state = "invalidated"
		}
		table.Append([]string{name, humanize.Comma(int64(c.Runs())), state})
	}
	table.SetFooter([]string{
		"flushes " + humanize.Comma(int64(stats.Flushes)),
		"runs " + humanize.Comma(int64(stats.Runs)),
		"pending " + strconv.Itoa(res.Runtime.Pending()),
	})
	table.Render()
}
