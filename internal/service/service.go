// Package service runs the web console as a system service.
package service

import (
	"fmt"
	"os"

	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/config"
	"github.com/jivas-io/jvmanager/internal/daemon"
)

const (
	Name        = "jvmanager"
	DisplayName = "JIVAS Manager Console"
	Description = "JIVAS Manager - web console for Jivas agents"
)

// Program implements service.Interface around the web console.
type Program struct {
	config *config.Config
	server *daemon.Server
	errs   chan error
}

func NewProgram(cfg *config.Config) *Program {
	return &Program{
		config: cfg,
		errs:   make(chan error, 1),
	}
}

func (p *Program) Start(s service.Service) error {
	logrus.Infoln("JIVAS Manager service starting")

	p.server = daemon.NewServer(p.config)

	go p.run()
	return nil
}

func (p *Program) run() {
	if err := p.server.Start(); err != nil {
		logrus.WithError(err).Errorln("Failed to start web console")
		p.errs <- err
		return
	}

	logrus.Infoln("JIVAS Manager service is running")
}

func (p *Program) Stop(s service.Service) error {
	logrus.Infoln("JIVAS Manager service stopping")

	if p.server != nil {
		p.server.Stop()
	}
	return nil
}

// Errors reports a console that failed to start.
func (p *Program) Errors() <-chan error {
	return p.errs
}

// Create wraps the console in a platform service. The service runs
// the executable's "serve" command with the same config file.
func Create(cfg *config.Config, configFile string) (service.Service, error) {
	svcConfig, err := serviceConfig(configFile)
	if err != nil {
		return nil, err
	}

	return service.New(NewProgram(cfg), svcConfig)
}

func serviceConfig(configFile string) (*service.Config, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}

	arguments := []string{"serve"}
	if len(configFile) > 0 {
		arguments = append(arguments, "--config", configFile)
	}

	return &service.Config{
		Name:        Name,
		DisplayName: DisplayName,
		Description: Description,
		Executable:  exePath,
		Arguments:   arguments,
	}, nil
}

// StatusText renders a service status for the CLI.
func StatusText(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
