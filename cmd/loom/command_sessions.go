package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"loom/internal/config"
	"loom/internal/store"
)

type SessionsCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewSessionsCommand(stdout, stderr io.Writer, newClient clientFactory) *SessionsCommand {
	return &SessionsCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *SessionsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}

	if _, err := client.Health(ctx); err != nil {
		fmt.Fprintf(c.stderr, "server unreachable (%v); showing cached sessions\n", err)
		return c.printCached()
	}

	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return err
	}
	printSessions(c.stdout, sessions)
	return nil
}

func (c *SessionsCommand) printCached() error {
	path, err := config.SnapshotDBPath()
	if err != nil {
		return err
	}
	snapshots, err := store.OpenSnapshotStore(path)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	cached, err := snapshots.List()
	if err != nil {
		return err
	}
	printCachedSessions(c.stdout, cached)
	return nil
}
