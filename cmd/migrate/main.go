package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/db"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

const usage = `usage: migrate -cmd <command> [flags]

commands:
  up        apply pending migrations
  down      roll back the newest migration
  to        move the schema to -version
  status    list migrations and whether they are applied
  version   print the newest applied version
  create    write a new migration named -name into -dir
  lint      check file names, goose annotations and money column types

The schema compiled into the binary is used unless -dir is given.
`

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|to|status|version|create|lint")
	dir := flag.String("dir", "", "read migrations from this directory instead of the binary")
	name := flag.String("name", "", "migration name for create")
	target := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmd})

	switch *cmd {
	case "create":
		outDir := *dir
		if outDir == "" {
			outDir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(outDir, *name, time.Now())
		exitOn(ctx, logg, "create migration", err)
		fmt.Println(path)
		return

	case "lint":
		migrations, err := migrate.Migrations(*dir)
		exitOn(ctx, logg, "open migrations", err)
		exitOn(ctx, logg, "lint migrations", migrate.Lint(migrations))
		fmt.Println("migrations ok")
		return
	}

	cfg, err := config.Load()
	exitOn(ctx, logg, "config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(context.Background(), map[string]any{"cmd": *cmd, "env": cfg.App.Env})

	migrations, err := migrate.Migrations(*dir)
	exitOn(ctx, logg, "open migrations", err)
	exitOn(ctx, logg, "lint migrations", migrate.Lint(migrations))

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "sql database", err)

	migrator, err := migrate.NewMigrator(sqlDB, migrations)
	exitOn(ctx, logg, "migrator", err)

	switch *cmd {
	case "up":
		applied, err := migrator.Up(ctx)
		printApplied(applied)
		exitOn(ctx, logg, "up", err)

	case "down":
		applied, err := migrator.Down(ctx)
		printApplied(applied)
		exitOn(ctx, logg, "down", err)

	case "to":
		if *target == "" {
			exitOn(ctx, logg, "to", fmt.Errorf("-version is required"))
		}
		applied, err := migrator.To(ctx, *target)
		printApplied(applied)
		exitOn(ctx, logg, "to", err)

	case "status":
		statuses, err := migrator.Status(ctx)
		exitOn(ctx, logg, "status", err)
		printStatus(statuses)

	case "version":
		version, err := migrator.Version(ctx)
		exitOn(ctx, logg, "version", err)
		fmt.Println(version)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printApplied(applied []migrate.Applied) {
	for _, a := range applied {
		fmt.Printf("%-4s %d %s (%s)\n", a.Direction, a.Version, a.Path, a.Duration.Round(time.Millisecond))
	}
}

func printStatus(statuses []migrate.Status) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		applied := "pending"
		if s.Applied {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, applied, s.Path)
	}
	w.Flush()
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("migrate %s failed", step), err)
	os.Exit(1)
}

