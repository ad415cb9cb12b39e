package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/database"
	"ms-boxoffice/internal/database/migrations"
	"ms-boxoffice/internal/database/seed"
	"ms-boxoffice/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const usage = `Usage: migrate [flags] <command> [arg]

Commands:
  up          apply every pending migration
  down        roll back every migration
  steps N     apply N migrations, negative N rolls back
  to V        migrate to version V
  version     print the applied version
  seed        load reference data from --seed

Flags:
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg := config.Load()

	var dir, dsn, seedFile string
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVarP(&dir, "dir", "d", cfg.Migrate.Dir, "directory holding the SQL migrations")
	flagSet.StringVar(&dsn, "dsn", cfg.Database.DSN, "postgres connection string (default: built from DB_* variables)")
	flagSet.StringVar(&seedFile, "seed", cfg.Migrate.SeedFile, "YAML file with roles, users and ticket types")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.Usage()
		return nil
	}
	args := flagSet.Args()
	if len(args) == 0 {
		flagSet.Usage()
		return fmt.Errorf("missing command")
	}

	log := logger.NewLogger("migrate")
	defer log.Close()

	cfg.Database.DSN = dsn
	ctx := context.Background()
	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if args[0] == "seed" {
		defer bunDB.Close()
		if seedFile == "" {
			return fmt.Errorf("seed needs --seed or SEED_FILE")
		}
		f, err := seed.LoadFile(seedFile)
		if err != nil {
			return err
		}
		_, err = seed.Apply(ctx, bunDB, f, log)
		return err
	}

	runner := migrations.NewRunner(bunDB, migrations.Options{Dir: dir}, log)
	defer runner.Close()

	switch args[0] {
	case "up":
		return runner.Up()
	case "down":
		return runner.Down()
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return runner.Steps(n)
	case "to":
		v, err := intArg(args)
		if err != nil || v < 0 {
			return fmt.Errorf("to needs a non-negative version")
		}
		return runner.To(uint(v))
	case "version":
		version, dirty, ok, err := runner.Version()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no migrations applied")
			return nil
		}
		fmt.Printf("%d (dirty=%t)\n", version, dirty)
		return nil
	default:
		flagSet.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s needs a number", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", args[0], args[1])
	}
	return n, nil
}
