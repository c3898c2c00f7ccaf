package main

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Ajaypalvai07/ai-help-center/internal/guard"
	"github.com/Ajaypalvai07/ai-help-center/internal/monitor"
)

var dashboardInterval time.Duration

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the admin dashboard (admins only)",
	Long: `Open the live admin dashboard in the terminal.

Requires an admin session. The dashboard auto-refreshes; press q to
quit, r to refresh immediately, u to toggle the user list.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().DurationVar(&dashboardInterval, "interval", 30*time.Second, "auto-refresh interval")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.requireAuth(cmd.Context())
	if err != nil {
		return err
	}
	if d := guard.CanEnter(guard.RouteDashboard, s); !d.Allowed {
		return errors.New("the dashboard requires an admin account")
	}

	model := monitor.NewModel(a.client, dashboardInterval)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// The dashboard is the one long-lived view, so the idle watcher runs
	// for its lifetime: walking away mid-session tears the TUI down
	// instead of leaving a signed-in terminal behind.
	a.watcher.Start(cmd.Context())
	done := make(chan struct{})
	defer close(done)
	go quitOnExpiry(a.watcher.Expired(), p.Quit, done)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	if !a.sessions.Current().Authenticated() {
		return errors.New("session expired, sign in again")
	}
	return nil
}

// quitOnExpiry stops the dashboard program when the watcher forces a
// sign-out. done releases the goroutine when the program exits on its
// own first.
func quitOnExpiry(expired <-chan struct{}, quit func(), done <-chan struct{}) {
	select {
	case <-expired:
		quit()
	case <-done:
	}
}
