package main

import (
	"embed"
	"io/fs"

	"github.com/wedsmoker/DiaryML/internal/server"
)

// The ui directory ships a minimal journal page; a full frontend build
// can be copied over it before compiling.
//
//go:embed all:ui
var uiDist embed.FS

func init() {
	sub, err := fs.Sub(uiDist, "ui")
	if err != nil {
		return
	}
	server.SetUI(sub)
}
