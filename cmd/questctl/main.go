package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/calebmorris/questdesk/pkg/client"
	"github.com/calebmorris/questdesk/pkg/logger"
)

const usage = `questctl - QuestDesk back-office CLI

Usage:
  questctl login <username>
  questctl logout
  questctl status
  questctl quests [status] [title]
  questctl requests [status]
  questctl approve <request-id> [note]
  questctl reject <request-id> [note]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c := client.New(cfg.baseURL, cfg.applicationID, client.Options{
		Store:  client.NewFileTokenStore(cfg.tokenPath),
		Logger: logger.New("questctl"),
		Navigate: func(route string) {
			if route == client.LoginRoute {
				fmt.Fprintln(os.Stderr, "Session expired, please log in again")
			}
		},
	})

	session := c.Session()
	session.Initialize()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "login":
		runLogin(ctx, session)
	case "logout":
		session.Logout()
		fmt.Println("Logged out")
	case "status":
		runStatus(session)
	case "quests":
		requireAuth(c)
		runQuests(ctx, c)
	case "requests":
		requireAuth(c)
		runRequests(ctx, c)
	case "approve":
		requireAuth(c)
		runReview(ctx, c, true)
	case "reject":
		requireAuth(c)
		runReview(ctx, c, false)
	default:
		fmt.Print(usage)
		os.Exit(1)
	}
}

type cliConfig struct {
	baseURL       string
	applicationID string
	tokenPath     string
}

// loadConfig reads ~/.questctl/config.yaml with env overrides
func loadConfig() (*cliConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	configDir := filepath.Join(home, ".questctl")

	viper.AddConfigPath(configDir)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("APPLICATION_ID", "questdesk-admin")

	viper.SetEnvPrefix("QUESTCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return &cliConfig{
		baseURL:       viper.GetString("BASE_URL"),
		applicationID: viper.GetString("APPLICATION_ID"),
		tokenPath:     filepath.Join(configDir, "tokens.json"),
	}, nil
}

// requireAuth evaluates the protected-route guard before an API command runs
func requireAuth(c *client.Client) {
	decision := c.Guard().Protected(strings.Join(os.Args[1:], " "))
	if decision.Action == client.ActionRedirect {
		fmt.Fprintln(os.Stderr, "Not logged in; run: questctl login <username>")
		os.Exit(1)
	}
}

func runLogin(ctx context.Context, session *client.Session) {
	if len(os.Args) < 3 {
		fmt.Print(usage)
		os.Exit(1)
	}
	username := os.Args[2]

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}

	result, err := session.Login(ctx, username, string(password))
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	if !result.OK {
		fmt.Fprintf(os.Stderr, "Login rejected: %s\n", result.Message)
		os.Exit(1)
	}
	fmt.Println("Logged in")
}

func runStatus(session *client.Session) {
	if session.IsAuthenticated() {
		fmt.Println("Authenticated")
	} else {
		fmt.Println("Not authenticated")
	}
}

func runQuests(ctx context.Context, c *client.Client) {
	opts := client.ListOptions{Size: 50}
	if len(os.Args) > 2 {
		opts.Status = os.Args[2]
	}
	if len(os.Args) > 3 {
		opts.Title = os.Args[3]
	}

	page, err := c.ListQuests(ctx, opts)
	if err != nil {
		log.Fatalf("Failed to list quests: %v", err)
	}

	fmt.Printf("%d quests (showing %d)\n", page.TotalCount, len(page.Quests))
	for _, q := range page.Quests {
		fmt.Printf("%s  %-10s  %s\n", q.ID, q.Status, q.Title)
	}
}

func runRequests(ctx context.Context, c *client.Client) {
	opts := client.ListOptions{Size: 50}
	if len(os.Args) > 2 {
		opts.Status = os.Args[2]
	}

	page, err := c.SearchRequests(ctx, opts)
	if err != nil {
		log.Fatalf("Failed to search quest requests: %v", err)
	}

	fmt.Printf("%d requests (showing %d)\n", page.TotalCount, len(page.Requests))
	for _, r := range page.Requests {
		fmt.Printf("%s  %-9s  %-30s  %s\n", r.ID, r.Status, r.RequesterEmail, r.QuestTitle)
	}
}

func runReview(ctx context.Context, c *client.Client, approve bool) {
	if len(os.Args) < 3 {
		fmt.Print(usage)
		os.Exit(1)
	}
	id := os.Args[2]
	note := ""
	if len(os.Args) > 3 {
		note = strings.Join(os.Args[3:], " ")
	}

	var err error
	if approve {
		err = c.ApproveRequest(ctx, id, note)
	} else {
		err = c.RejectRequest(ctx, id, note)
	}
	if err != nil {
		log.Fatalf("Review failed: %v", err)
	}

	if approve {
		fmt.Println("Request approved")
	} else {
		fmt.Println("Request rejected")
	}
}
