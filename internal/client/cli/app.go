package cli

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/triagekeeper/internal/client/api"
	"github.com/dmitrijs2005/triagekeeper/internal/client/config"
)

type App struct {
	config *config.Config
	http   *http.Client
	api    *api.Client
	reader *bufio.Reader
	out    io.Writer
	email  string
}

func NewApp(c *config.Config) *App {
	hc := &http.Client{Timeout: c.RequestTimeout}
	client := api.New(c.ServerURL, hc)
	if c.Token != "" {
		client.SetToken(c.Token)
	}
	return &App{
		config: c,
		http:   hc,
		api:    client,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.HasToken()
}

func (a *App) status() string {
	if !a.isLoggedIn() {
		return "(anonymous) "
	}
	if a.email != "" {
		return "(" + a.email + ") "
	}
	return "(token) "
}

// Run starts the REPL on stdin.
func (a *App) Run(ctx context.Context) {
	printlnFn("triagekeeper CLI (type 'help' for commands)")
	if err := a.api.Health(ctx); err != nil {
		printlnFn("warning: server unreachable:", err)
	}
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}
