package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/slovar/slovar/migrations"
	"github.com/slovar/slovar/pkg/migrate"
)

var (
	databaseURL   string
	targetVersion int64
	skipConfirm   bool
	migrationsDir string
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:          "slovar-migrate",
		Short:        "Manage the database schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url",
		os.Getenv("SLOVAR_POSTGRES_URL"), "PostgreSQL connection URL")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cleanup, err := buildEngine(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := engine.Status(cmd.Context())
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
			for _, migration := range status {
				appliedAt := "-"
				if migration.Status == migrate.StatusApplied {
					appliedAt = migration.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n",
					migration.Identifier.Version,
					migration.Identifier.Name,
					migration.Status,
					appliedAt,
				)
			}
			return writer.Flush()
		},
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cleanup, err := buildEngine(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			toApply := migrate.PendingUpTo(status, targetVersion)
			if len(toApply) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to apply")
				return nil
			}

			if !skipConfirm {
				fmt.Fprintf(cmd.OutOrStdout(), "about to apply %d migration(s):\n", len(toApply))
				for _, migration := range toApply {
					marker := ""
					if !migration.HasDown() {
						marker = "  (cannot be rolled back)"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  %s%s\n", migration.Identifier, marker)
				}
				if !confirm(cmd) {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			applied, err := engine.Up(cmd.Context(), targetVersion)
			for _, identifier := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", identifier)
			}
			return err
		},
	}
	upCmd.Flags().Int64Var(&targetVersion, "to", math.MaxInt64,
		"apply migrations up to and including this version")
	upCmd.Flags().BoolVar(&skipConfirm, "yes", false, "skip the confirmation prompt")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cleanup, err := buildEngine(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			toRollBack := migrate.AppliedAbove(status, targetVersion)
			if len(toRollBack) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
				return nil
			}

			if !skipConfirm {
				fmt.Fprintf(cmd.OutOrStdout(), "about to roll back %d migration(s):\n", len(toRollBack))
				for _, migration := range toRollBack {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", migration.Identifier)
				}
				if !confirm(cmd) {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			rolledBack, err := engine.Down(cmd.Context(), targetVersion)
			for _, identifier := range rolledBack {
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", identifier)
			}
			return err
		},
	}
	downCmd.Flags().Int64Var(&targetVersion, "to", 0,
		"roll back migrations with versions above this one")
	downCmd.Flags().BoolVar(&skipConfirm, "yes", false, "skip the confirmation prompt")
	downCmd.MarkFlagRequired("to")

	generateCmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Scaffold a new migration directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := migrate.LoadLocal(os.DirFS(migrationsDir), migrations.GoScripts(), logger)
			if err != nil {
				return err
			}

			identifier, err := migrate.Generate(migrationsDir, migrate.NextVersion(local), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s/%s\n", migrationsDir, identifier.DirectoryName())
			return nil
		},
	}
	generateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations",
		"directory holding the migration set")

	root.AddCommand(statusCmd, upCmd, downCmd, generateCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.WithError(err).Fatal("command failed")
	}
}

func buildEngine(ctx context.Context, logger *logrus.Logger) (*migrate.Engine, func(), error) {
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("database URL is required (--database-url or SLOVAR_POSTGRES_URL)")
	}

	local, err := migrations.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	engine := migrate.NewEngine(db, local, logger)
	if err := engine.Initialize(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return engine, func() { db.Close() }, nil
}

func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "continue? [y/N] ")
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
