package app

import "go.trai.ch/mason/internal/core/ports"

// Components bundles the wired application objects handed to main.
type Components struct {
	App    *App
	Logger ports.Logger
	Parser ports.Parser
}
