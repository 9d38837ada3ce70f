package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/zia/internal/client/client"
	"github.com/dmitrijs2005/zia/internal/client/config"
	"github.com/dmitrijs2005/zia/internal/client/repositories/session"
	"github.com/dmitrijs2005/zia/internal/client/services"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// healthChecker is what the status watcher needs. client.HealthProbe
// implements it.
type healthChecker interface {
	Check(ctx context.Context) (string, error)
}

type App struct {
	config  *config.Config
	auth    services.AuthService
	chat    *services.ChatService
	probe   healthChecker
	reader  *bufio.Reader
	out     io.Writer
	closers []io.Closer

	mu    sync.Mutex
	email string
	mode  Mode
}

// NewApp opens the session store and prepares the API clients.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	store, err := session.Open(ctx, c.SessionFile)
	if err != nil {
		return nil, err
	}

	probe, err := client.NewHealthProbe(c.HealthAddr)
	if err != nil {
		store.Close()
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	return &App{
		config:  c,
		auth:    services.NewAuthService(api, store),
		chat:    services.NewChatService(api),
		probe:   probe,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		closers: []io.Closer{probe, store},
	}, nil
}

// Run resumes a saved session if there is one and runs the REPL until the
// user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "zia CLI (type 'help' for commands)")

	email, err := a.auth.Restore(ctx)
	if err != nil {
		log.Printf("could not resume session: %v", err)
	}
	a.setEmail(email)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.email != ""
}

func (a *App) setEmail(email string) {
	a.mu.Lock()
	a.email = email
	a.mu.Unlock()
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := ""
	if a.email != "" {
		s = a.email + " "
	}
	s += string(a.mode)
	if s == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", s)
}

// checkOnline runs one health probe and updates the mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status, err := a.probe.Check(ctx)
	if err != nil || status != "SERVING" {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher probes server health every interval until ctx is
// done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
