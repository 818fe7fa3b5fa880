package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"loom/internal/app"
	loomclient "loom/internal/client"
	"loom/internal/config"
	"loom/internal/logging"
	"loom/internal/pipeline"
	"loom/internal/store"
	"loom/internal/types"
)

type UICommand struct {
	stderr    io.Writer
	newClient clientFactory
}

func NewUICommand(stderr io.Writer, newClient clientFactory) *UICommand {
	return &UICommand{
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	sessionID := fs.String("session", "", "session id to attach to")
	title := fs.String("title", "", "title for a new pipeline run")
	postingPath := fs.String("posting", "", "job posting file; starts a new pipeline run")
	resumePath := fs.String("resume", "", "current resume file for a new pipeline run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	id := strings.TrimSpace(*sessionID)
	switch {
	case id != "":
	case *postingPath != "":
		id, err = startPipelineRun(ctx, client, *title, *postingPath, *resumePath)
		if err != nil {
			return err
		}
	default:
		id, err = mostRecentRunningSession(ctx, client)
		if err != nil {
			return err
		}
	}

	return client.RunUI(id)
}

func startPipelineRun(ctx context.Context, client commandClient, title, postingPath, resumePath string) (string, error) {
	posting, err := os.ReadFile(postingPath)
	if err != nil {
		return "", fmt.Errorf("read job posting: %w", err)
	}
	req := loomclient.StartPipelineRequest{
		Title:      strings.TrimSpace(title),
		JobPosting: string(posting),
	}
	if resumePath != "" {
		resume, err := os.ReadFile(resumePath)
		if err != nil {
			return "", fmt.Errorf("read resume: %w", err)
		}
		req.ResumeText = string(resume)
	}
	session, err := client.StartPipeline(ctx, req)
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

// mostRecentRunningSession picks the session a bare `loom` should attach to.
func mostRecentRunningSession(ctx context.Context, client commandClient) (string, error) {
	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return "", err
	}
	var best *types.PipelineSession
	for _, session := range sessions {
		if session.Status != types.PipelineStatusRunning && session.Status != types.PipelineStatusCreated {
			continue
		}
		if best == nil || lastActive(session).After(lastActive(best)) {
			best = session
		}
	}
	if best == nil {
		return "", errors.New("no running sessions; pass --posting to start one or --session to attach")
	}
	return best.ID, nil
}

func lastActive(session *types.PipelineSession) time.Time {
	if session.LastActiveAt != nil {
		return *session.LastActiveAt
	}
	return session.CreatedAt
}

// runUISession owns everything the terminal UI needs besides the API
// client: config, file logging, the snapshot cache, and the program loop.
func runUISession(apiClient *loomclient.Client, sessionID string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.Nop()
	if path, err := config.UILogPath(); err == nil {
		fileLog, closer, err := logging.OpenFile(path, logging.ParseLevel(cfg.LogLevel()))
		if err == nil {
			log = fileLog
			defer closer.Close()
		}
	}

	if cfg.StreamDebugEnabled() {
		if path, err := config.StreamLogPath(); err == nil {
			streamLog, closer, err := logging.OpenFile(path, logging.Debug)
			if err == nil {
				loomclient.SetStreamLogger(streamLog)
				defer closer.Close()
			}
		}
	}

	deps := app.Deps{
		SessionID: sessionID,
		Stream:    apiClient,
		Sender:    apiClient,
		Gates:     apiClient,
		Reconnect: pipeline.BoundedExponentialReconnectPolicy{
			InitialDelay: cfg.ReconnectInitialDelay(),
			MaxDelay:     cfg.ReconnectMaxDelay(),
			MaxAttempts:  cfg.ReconnectMaxAttempts(),
		},
		Log:          log,
		TickInterval: cfg.UITickInterval(),
	}

	if path, err := config.SnapshotDBPath(); err == nil {
		snapshots, err := store.OpenSnapshotStore(path)
		if err != nil {
			log.Warn("snapshot cache unavailable", logging.F("err", err))
		} else {
			defer snapshots.Close()
			deps.Snapshots = snapshots
		}
	}

	var opts []tea.ProgramOption
	if cfg.UIAltScreen() {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.UIMouseEnabled() {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return app.Run(deps, opts...)
}
