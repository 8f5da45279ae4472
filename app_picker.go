package main

import (
	"context"
	"log/slog"
)

// Picker asks the user for a file path. filters are accepted extensions
// without the dot. It reports false when the user cancels.
type Picker interface {
	PickFile(ctx context.Context, title string, filters []string) (string, bool)
}

// noPicker is used without a window; file prompts are always cancelled.
type noPicker struct{}

func (noPicker) PickFile(_ context.Context, title string, _ []string) (string, bool) {
	slog.Info("[DEBUG-APP] file picker unavailable without a window", "title", title)
	return "", false
}

func (a *App) setPicker(p Picker) {
	if p == nil {
		p = noPicker{}
	}
	a.picker = p
}
