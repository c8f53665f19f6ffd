package main

import (
	"embed"
	"io/fs"

	"github.com/Anika-Jha/Eterna/internal/cli"
)

// The ui directory holds the built gallery. Replace its contents with the
// frontend build output before compiling a release binary.
//
//go:embed all:ui
var uiDist embed.FS

func init() {
	sub, err := fs.Sub(uiDist, "ui")
	if err != nil {
		return
	}
	cli.SetUI(sub)
}
