package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codefolio/internal/auth"
	"codefolio/internal/client"
	"codefolio/internal/config"
	"codefolio/internal/database"
	"codefolio/internal/domain/models"
	"codefolio/internal/replica"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadClient reads the CLI config named by --config, or the default path
func loadClient(cmd *cobra.Command) (*client.Client, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := client.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := client.ReadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.ServerURL = server
	}
	return client.New(cfg), nil
}

// serverConfig loads the same environment the server reads
func serverConfig() *config.Config {
	_ = godotenv.Load()
	return config.Load()
}

var rootCmd = &cobra.Command{
	Use:   "folioctl",
	Short: "Manage a codefolio server",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := serverConfig()
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		store, err := database.Open(cmd.Context(), cfg, logger, database.Options{Migrate: true})
		if err != nil {
			return fmt.Errorf("migrating %s database: %w", cfg.DatabaseType, err)
		}
		defer store.Close()

		fmt.Printf("Database (%s) is up to date\n", store.Type)
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the portfolio folder tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadClient(cmd)
		if err != nil {
			return err
		}

		records, err := c.ListFiles(cmd.Context())
		if err != nil {
			return err
		}

		rep := replica.New()
		rep.Load(records)
		fmt.Print(client.RenderTree("/", rep.Tree()))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := serverConfig()
		if cfg.JWKSURL != "" {
			return fmt.Errorf("server verifies tokens against %s; issue tokens with that provider", cfg.JWKSURL)
		}

		userID, _ := cmd.Flags().GetInt64("user")
		username, _ := cmd.Flags().GetString("username")
		admin, _ := cmd.Flags().GetBool("admin")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if userID == 0 {
			userID = cfg.DefaultOwnerID
		}

		token, err := auth.IssueToken(cfg.JWTSecret, models.Principal{
			UserID:   userID,
			Username: username,
			IsAdmin:  admin,
		}, ttl)
		if err != nil {
			return err
		}

		fmt.Println(token)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Upload the text files of a local directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadClient(cmd)
		if err != nil {
			return err
		}

		archive, err := client.ArchiveDirectory(args[0])
		if err != nil {
			return err
		}

		result, err := c.Import(cmd.Context(), archive)
		if err != nil {
			return err
		}

		s := result.Summary
		fmt.Printf("Imported %d files: %d created, %d updated, %d unchanged, %d skipped, %d failed (%d folders)\n",
			s.TotalFiles, s.Created, s.Updated, s.Unchanged, s.Skipped, s.Failed, s.Folders)
		for _, e := range result.Errors {
			fmt.Printf("  %s: %s\n", e.File, e.Error)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow record changes as they are committed",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadClient(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rep := replica.New()
		return c.Watch(ctx, rep, func(change client.Change) {
			printChange(os.Stdout, change)
		})
	},
}

func printChange(w io.Writer, change client.Change) {
	e := change.Event
	name := ""
	if e.Record != nil {
		name = e.Record.Name
	}
	fmt.Fprintf(w, "%s  %-13s #%d %s [%s]\n",
		time.Now().Format(time.TimeOnly), e.Type, e.ID, name, change.Outcome)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "CLI config file (default ~/.config/folioctl/config.toml)")
	rootCmd.PersistentFlags().String("server", "", "Server URL, overrides the config file")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Int64("user", 0, "User ID (defaults to DEFAULT_OWNER_ID)")
	tokenCmd.Flags().String("username", "", "Username claim")
	tokenCmd.Flags().Bool("admin", true, "Grant write access")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
}
