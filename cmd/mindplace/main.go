package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/varangian-core/mind-place/internal/auth"
	"github.com/varangian-core/mind-place/internal/config"
	"github.com/varangian-core/mind-place/internal/mirror"
	"github.com/varangian-core/mind-place/internal/reconcile"
	"github.com/varangian-core/mind-place/internal/remote"
	"github.com/varangian-core/mind-place/internal/server"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mindplace",
		Short:   "Snippet manager with a local mirror",
		Long:    `MindPlace stores markdown snippets organized into topics. The CLI talks to a MindPlace server when one is reachable and falls back to a local mirror on disk when it is not.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(
		serveCmd(),
		listCmd(),
		getCmd(),
		createCmd(),
		topicCmd(),
		loginCmd(),
		hashCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MindPlace API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			srv, err := server.New(context.Background(), cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			return srv.Start()
		},
	}
}

// newRepository builds the reconciling repository the client commands run
// on: a remote adapter pointed at the configured server and a mirror store
// under the data directory.
func newRepository(cfg *config.Config) (*reconcile.Repository, error) {
	logger := slog.Default()

	opts := []remote.Option{}
	if token := loadToken(cfg); token != "" {
		opts = append(opts, remote.WithToken(token))
	}
	client := remote.New(cfg.Client.APIBaseURL, logger, opts...)

	store, err := mirror.New(filepath.Join(cfg.Client.DataDir, "mirror"))
	if err != nil {
		return nil, fmt.Errorf("failed to open local mirror: %w", err)
	}

	return reconcile.New(client, store, logger), nil
}

func tokenPath(cfg *config.Config) string {
	return filepath.Join(cfg.Client.DataDir, "token")
}

func loadToken(cfg *config.Config) string {
	data, err := os.ReadFile(tokenPath(cfg))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all snippets and topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			repo, err := newRepository(cfg)
			if err != nil {
				return err
			}

			overview, err := repo.ListAll(context.Background())
			if err != nil {
				return err
			}

			if overview.UsingLocalStorage {
				fmt.Println("(server unreachable, showing local mirror)")
				fmt.Println()
			}

			fmt.Printf("Topics (%d):\n", len(overview.Topics))
			for _, topic := range overview.Topics {
				count := 0
				if topic.Count != nil {
					count = topic.Count.Snippets
				}
				fmt.Printf("  %-24s %s (%d snippets)\n", topic.ID, topic.Name, count)
			}

			fmt.Printf("\nSnippets (%d):\n", len(overview.Snippets))
			for _, snippet := range overview.Snippets {
				topicName := "uncategorized"
				if snippet.Topic != nil {
					topicName = snippet.Topic.Name
				}
				fmt.Printf("  %-24s %s [%s] %s\n",
					snippet.ID, snippet.Name, topicName,
					snippet.CreatedAt.Format(time.RFC3339))
			}

			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a snippet's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			repo, err := newRepository(cfg)
			if err != nil {
				return err
			}

			snippet, err := repo.GetSnippet(context.Background(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("# %s\n", snippet.Name)
			if snippet.Topic != nil {
				fmt.Printf("Topic: %s\n", snippet.Topic.Name)
			}
			fmt.Printf("Created: %s\n\n", snippet.CreatedAt.Format(time.RFC3339))
			fmt.Println(snippet.Content)

			return nil
		},
	}
}

func createCmd() *cobra.Command {
	var content string
	var file string
	var topicID string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a snippet",
		Long:  `Creates a snippet with the given name. Content comes from --content, --file, or stdin, in that order of preference.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if content == "" && file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				content = string(data)
			}
			if content == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				content = string(data)
			}

			repo, err := newRepository(cfg)
			if err != nil {
				return err
			}

			snippet, err := repo.CreateSnippet(context.Background(), args[0], content, topicID)
			if err != nil {
				return err
			}

			if repo.UsingLocalStorage() {
				fmt.Println("(server unreachable, saved to local mirror)")
			}
			fmt.Printf("Created snippet %s\n", snippet.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "snippet content")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from file")
	cmd.Flags().StringVarP(&topicID, "topic", "t", "", "topic ID to file the snippet under")

	return cmd
}

func topicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage topics",
	}

	cmd.AddCommand(topicListCmd(), topicCreateCmd(), topicDeleteCmd(), topicReorderCmd())
	return cmd
}

func topicListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			repo, err := newRepository(cfg)
			if err != nil {
				return err
			}

			overview, err := repo.ListAll(context.Background())
			if err != nil {
				return err
			}

			if overview.UsingLocalStorage {
				fmt.Println("(server unreachable, showing local mirror)")
			}
			for _, topic := range overview.Topics {
				count := 0
				if topic.Count != nil {
					count = topic.Count.Snippets
				}
				fmt.Printf("%-24s %-20s %d snippets\n", topic.ID, topic.Name, count)
			}

			return nil
		},
	}
}

func topicCreateCmd() *cobra.Command {
	var description string
	var icon string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			repo, err := newRepository(cfg)
			if err != nil {
				return err
			}

			topic, err := repo.CreateTopic(context.Background(), args[0], description, icon)
			if err != nil {
				return err
			}

			if repo.UsingLocalStorage() {
				fmt.Println("(server unreachable, saved to local mirror)")
			}
			fmt.Printf("Created topic %s\n", topic.ID)

			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "topic description")
	cmd.Flags().StringVar(&icon, "icon", "folder", "topic icon name")

	return cmd
}

func topicDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a topic, moving its snippets to uncategorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			repo, err := newRepository(cfg)
			if err != nil {
				return err
			}

			if err := repo.DeleteTopic(context.Background(), args[0]); err != nil {
				return err
			}

			if repo.UsingLocalStorage() {
				fmt.Println("(server unreachable, deleted from local mirror)")
			}
			fmt.Println("Topic deleted.")

			return nil
		},
	}
}

func topicReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <from> <to>",
		Short: "Move a topic to a new position in the local display order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid from index: %q", args[0])
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid to index: %q", args[1])
			}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			repo, err := newRepository(cfg)
			if err != nil {
				return err
			}

			topics, err := repo.ReorderTopics(from, to)
			if err != nil {
				return err
			}

			for i, topic := range topics {
				fmt.Printf("%2d. %s\n", i, topic.Name)
			}

			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the server and store the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Print("Password: ")
			reader := bufio.NewReader(os.Stdin)
			password, _ := reader.ReadString('\n')
			password = strings.TrimSpace(password)

			client := remote.New(cfg.Client.APIBaseURL, slog.Default())
			token, err := client.Login(context.Background(), password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := os.MkdirAll(cfg.Client.DataDir, 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			if err := os.WriteFile(tokenPath(cfg), []byte(token), 0o600); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}

			fmt.Println("Logged in.")
			return nil
		},
	}
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Hash a password for use as auth.password_hash in the config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.NewPasswordService().Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}
