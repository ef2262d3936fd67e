// Command simulate plays batches of AI-vs-AI Angel Problem games and reports
// how often each side wins.
//
// The default command plays in-process against the engine. The "remote"
// command creates ai_vs_ai tables on a running server and watches them
// through the REST API until they finish.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/angel-problem/game/engine"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

// sharedFlags returns fresh instances for each command that uses them
func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "games",
			Aliases: []string{"n"},
			Value:   100,
			Usage:   "number of games to play",
		},
		&cli.IntFlag{
			Name:    "power",
			Aliases: []string{"k"},
			Value:   engine.DefaultPower,
			Usage:   "Angel jump power (1-10)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "log every finished game",
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "play AI-vs-AI Angel Problem games and summarise the results",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "escape",
				Value: engine.DefaultEscapeDistance,
				Usage: "distance from the origin the Angel must reach",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "base random seed; game i uses seed+i (0 picks one from the clock)",
			},
			&cli.IntFlag{
				Name:  "max-turns",
				Value: 2000,
				Usage: "abandon a game after this many actions",
			},
		}, sharedFlags()...),
		Action: runLocal,
		Commands: []*cli.Command{
			{
				Name:  "remote",
				Usage: "watch ai_vs_ai tables played by a running server",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "server",
						Value: "http://localhost:8080",
						Usage: "game server URL",
					},
					&cli.StringFlag{
						Name:  "preset",
						Usage: "preset to create tables from (server default when empty)",
					},
					&cli.DurationFlag{
						Name:  "poll",
						Value: 250 * time.Millisecond,
						Usage: "state polling interval",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 2 * time.Minute,
						Usage: "give up on a table after this long",
					},
				}, sharedFlags()...),
				Action: runRemote,
			},
		},
	}
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runLocal(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.Bool("verbose"))
	defer logger.Sync()

	rules := engine.DefaultRules()
	rules.Name = "simulation"
	rules.Mode = engine.AIVsAI
	rules.Power = cmd.Int("power")
	rules.EscapeDistance = cmd.Int("escape")
	if err := engine.ValidateRules(rules); err != nil {
		return err
	}

	seed := cmd.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	batch := Batch{
		Rules:    rules,
		Games:    cmd.Int("games"),
		Seed:     seed,
		MaxTurns: cmd.Int("max-turns"),
		Logger:   logger,
	}
	summary, err := batch.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Seed: %d\n", seed)
	summary.Print(cmd.Root().Writer)
	return nil
}

func runRemote(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.Bool("verbose"))
	defer logger.Sync()

	if err := engine.ValidatePower(cmd.Int("power")); err != nil {
		return err
	}

	watcher := &Watcher{
		Client:  NewClient(cmd.String("server")),
		Preset:  cmd.String("preset"),
		Power:   cmd.Int("power"),
		Poll:    cmd.Duration("poll"),
		Timeout: cmd.Duration("timeout"),
		Logger:  logger,
	}

	var summary Summary
	for i := 0; i < cmd.Int("games"); i++ {
		result, err := watcher.Play(ctx)
		if err != nil {
			return fmt.Errorf("game %d: %w", i+1, err)
		}
		summary.Add(result)
	}

	fmt.Fprintf(cmd.Root().Writer, "Server: %s\n", cmd.String("server"))
	summary.Print(cmd.Root().Writer)
	return nil
}
