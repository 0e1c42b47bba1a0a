package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/zayatsoff/spm/internal/shared"
	"github.com/zayatsoff/spm/internal/ui"
)

// Board launches the interactive playlist board.
func (r *Runner) Board(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with rendering
	fileLogger, err := shared.NewFileLogger(filepath.Join(r.dataDir(), "spm-board.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running board: %w", err)
	}

	return nil
}
