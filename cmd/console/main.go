package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout    time.Duration `env:"CONSOLE_TIMEOUT" envDefault:"90s"`
}

func main() {
	var cfg ConsoleConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid console configuration: %v\n", err)
		os.Exit(1)
	}

	api := NewAPIClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.Timeout})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !api.Ping(ctx) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	s, err := api.CreateSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(api, s),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
