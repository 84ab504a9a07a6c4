// Package main seeds a SpellBee database with a word bank and simulated players.
//
// Usage:
//
//	go run ./cmd/seed --db ./data/spellbee.db words --per-tier 40
//	go run ./cmd/seed --db ./data/spellbee.db words --file ./words/starter.yaml
//	go run ./cmd/seed --db ./data/spellbee.db players --count 25 --games 8
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/urfave/cli/v2"

	"github.com/spellbee/spellbee-server/internal/auth"
	"github.com/spellbee/spellbee-server/internal/logger"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/rating"
	"github.com/spellbee/spellbee-server/internal/service"
	"github.com/spellbee/spellbee-server/internal/store/sqlite"
	"github.com/spellbee/spellbee-server/internal/wordlist"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "populate a SpellBee database with fake but valid data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite database path",
				Value:   "./data/spellbee.db",
				EnvVars: []string{"DB_PATH"},
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "random seed, 0 picks one from the clock",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log every generated entity",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "words",
				Usage: "import generated words into every tier, or a word list file",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "per-tier", Value: 30, Usage: "words to generate per tier"},
					&cli.StringFlag{Name: "file", Usage: "import this .yaml or .txt word list instead of generating"},
				},
				Action: func(c *cli.Context) error {
					env, err := openEnv(c)
					if err != nil {
						return err
					}
					defer env.close()

					var inputs []service.WordInput
					if path := c.String("file"); path != "" {
						if inputs, err = wordlist.LoadFile(path); err != nil {
							return err
						}
					} else {
						inputs = generateWords(env.faker, c.Int("per-tier"))
					}
					n, err := env.words.ImportWords(c.Context, inputs)
					if err != nil {
						return fmt.Errorf("import words: %w", err)
					}
					fmt.Printf("Imported %d words\n", n)
					return nil
				},
			},
			{
				Name:  "players",
				Usage: "create players who take the placement quiz and play games",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Value: 20, Usage: "players to create"},
					&cli.IntFlag{Name: "games", Value: 5, Usage: "games each player finishes"},
				},
				Action: func(c *cli.Context) error {
					env, err := openEnv(c)
					if err != nil {
						return err
					}
					defer env.close()

					sim := newSimulator(env)
					stats, err := sim.run(c.Context, c.Int("count"), c.Int("games"))
					if err != nil {
						return err
					}
					fmt.Printf("Created %d players, finished %d games, awarded %d XP\n", stats.players, stats.games, stats.xp)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// seedEnv holds the services the subcommands drive.
type seedEnv struct {
	store    *sqlite.Store
	faker    *gofakeit.Faker
	auth     *service.AuthService
	profiles *service.ProfileService
	games    *service.GameService
	words    *service.WordService
	logger   *logger.Logger
}

func openEnv(c *cli.Context) (*seedEnv, error) {
	seed := c.Uint64("seed")
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	fmt.Printf("Using seed %d\n", seed)

	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: logger.ParseLevel(level), Environment: "development"})

	return newSeedEnv(c.String("db"), seed, log)
}

func newSeedEnv(dbPath string, seed uint64, log *logger.Logger) (*seedEnv, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	st, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// Sessions are never handed out, but AuthService needs a signing key.
	key, err := auth.LoadOrGenerateKey(filepath.Dir(dbPath))
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	tokens, err := auth.NewTokenService(key, time.Hour)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	// The registry is private to this process; nothing scrapes it.
	m := metrics.New(metrics.NewRegistry())

	return &seedEnv{
		store:    st,
		faker:    gofakeit.New(seed),
		auth:     service.NewAuthService(st, tokens, log.Logger),
		profiles: service.NewProfileService(st, service.NewProfileGuard(log.Logger, m), m, log.Logger),
		games:    service.NewGameService(st, rating.NewGlicko2(rating.DefaultTau), m, log.Logger),
		words:    service.NewWordService(st, log.Logger),
		logger:   log,
	}, nil
}

func (e *seedEnv) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error("close store", "error", err)
	}
}
