// Command migrate applies, inspects or rolls back the account directory
// schema without starting the server.
//
// Usage:
//
//	migrate [flags] up
//	migrate [flags] status
//	migrate [flags] down [version]
//
// Flags are the server's; only -d (database DSN) and -l (log level) matter
// here.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/zia/internal/logging"
	"github.com/dmitrijs2005/zia/internal/server/config"
	"github.com/dmitrijs2005/zia/internal/server/repositories/repomanager"
)

type command struct {
	name    string
	version int64
}

// parseCommand picks the subcommand out of args, skipping flags and their
// values.
func parseCommand(args []string) (command, error) {
	var positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		positional = append(positional, a)
	}

	if len(positional) == 0 {
		return command{name: "up"}, nil
	}

	cmd := command{name: positional[0]}
	switch cmd.name {
	case "up", "status":
		if len(positional) > 1 {
			return command{}, fmt.Errorf("%s takes no arguments", cmd.name)
		}
	case "down":
		if len(positional) > 2 {
			return command{}, fmt.Errorf("down takes at most one version")
		}
		if len(positional) == 2 {
			v, err := strconv.ParseInt(positional[1], 10, 64)
			if err != nil || v < 0 {
				return command{}, fmt.Errorf("invalid version %q", positional[1])
			}
			cmd.version = v
		}
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

func run(ctx context.Context, m repomanager.RepositoryManager, db *sql.DB, cmd command) error {
	switch cmd.name {
	case "status":
		return m.Status(ctx, db)
	case "down":
		return m.Down(ctx, db, cmd.version)
	default:
		return m.RunMigrations(ctx, db)
	}
}

func main() {
	ctx := context.Background()

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		log.Fatalf("usage: migrate [flags] up|status|down [version]: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	if err := run(ctx, repomanager.NewPostgresRepositoryManager(), db, cmd); err != nil {
		logger.Error(ctx, "migration failed", "command", cmd.name, "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "migration finished", "command", cmd.name)
}
