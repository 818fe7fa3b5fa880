package main

import (
	"context"

	loomclient "loom/internal/client"
	"loom/internal/types"
)

type clientFactory func() (commandClient, error)

type commandClient interface {
	Health(ctx context.Context) (*loomclient.HealthResponse, error)
	ListSessions(ctx context.Context) ([]*types.PipelineSession, error)
	StartPipeline(ctx context.Context, req loomclient.StartPipelineRequest) (*types.PipelineSession, error)
	RunUI(sessionID string) error
}

type pipelineClientAdapter struct {
	client *loomclient.Client
}

func newPipelineClient() (commandClient, error) {
	client, err := loomclient.New()
	if err != nil {
		return nil, err
	}
	return &pipelineClientAdapter{client: client}, nil
}

func (a *pipelineClientAdapter) Health(ctx context.Context) (*loomclient.HealthResponse, error) {
	return a.client.Health(ctx)
}

func (a *pipelineClientAdapter) ListSessions(ctx context.Context) ([]*types.PipelineSession, error) {
	return a.client.ListSessions(ctx)
}

func (a *pipelineClientAdapter) StartPipeline(ctx context.Context, req loomclient.StartPipelineRequest) (*types.PipelineSession, error) {
	return a.client.StartPipeline(ctx, req)
}

func (a *pipelineClientAdapter) RunUI(sessionID string) error {
	return runUISession(a.client, sessionID)
}
