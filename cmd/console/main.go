package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

type ConsoleConfig struct {
	ServerURL string
	Timeout   time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		ServerURL: getEnv("SERVER_URL", "ws://localhost:8080/ws"),
		Timeout:   30 * time.Second,
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.Timeout}
	conn, _, err := dialer.Dial(cfg.ServerURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to %s: %v\nPlease ensure the server is running.\nTry: docker-compose up -d\n", cfg.ServerURL, err)
		os.Exit(1)
	}
	defer func() {
		_ = conn.Close() // Ignore error in defer
	}()

	p := tea.NewProgram(NewConsoleUI(cfg, conn),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
