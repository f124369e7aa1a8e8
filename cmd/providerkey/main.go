package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"uigen/internal/infra"
	"uigen/internal/infra/credentials"
	"uigen/internal/sqlinline"
)

// providerkey stores, removes or lists model provider API keys in integration_tokens.
func main() {
	var (
		keyFlag      string
		providerFlag string
		deleteFlag   bool
		listFlag     bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (falls back to the environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderGemini, "model provider to configure (gemini or openai)")
	flag.BoolVar(&deleteFlag, "delete", false, "remove the stored key instead of setting it")
	flag.BoolVar(&listFlag, "list", false, "list stored keys without revealing them")
	flag.Parse()

	_ = godotenv.Load()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	if provider == "" {
		provider = credentials.ProviderGemini
	}
	if !listFlag && !credentials.Supported(provider) {
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" && !deleteFlag && !listFlag {
		key = strings.TrimSpace(os.Getenv(strings.ToUpper(provider) + "_API_KEY"))
		if key == "" {
			fmt.Fprintf(os.Stderr, "%s API key is required via -key or environment\n", strings.ToUpper(provider))
			os.Exit(1)
		}
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", os.Getenv("LOG_LEVEL")).With().Str("cmd", "providerkey").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure schema: %v\n", err)
		os.Exit(1)
	}
	store := credentials.NewStore(runner)

	switch {
	case listFlag:
		infos, err := store.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list api keys: %v\n", err)
			os.Exit(1)
		}
		if len(infos) == 0 {
			fmt.Println("no API keys stored")
		}
		for _, info := range infos {
			source := info.Source
			if source == "" {
				source = "-"
			}
			fmt.Printf("%-8s ...%s  source=%s  updated=%s\n", info.Provider, info.Suffix, source, info.UpdatedAt.Format(time.RFC3339))
		}
	case deleteFlag:
		if err := store.DeleteToken(ctx, provider); err != nil {
			fmt.Fprintf(os.Stderr, "failed to remove %s api key: %v\n", provider, err)
			os.Exit(1)
		}
		fmt.Printf("%s API key removed\n", strings.ToUpper(provider))
	default:
		if err := store.SetToken(ctx, provider, key, map[string]any{"source": "cli"}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to store %s api key: %v\n", provider, err)
			os.Exit(1)
		}
		fmt.Printf("%s API key stored successfully\n", strings.ToUpper(provider))
	}
}
