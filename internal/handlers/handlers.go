package handlers

import (
	"context"

	"policy-lens/internal/domain"
	"policy-lens/internal/usecase"
)

// ChatService is the chat mediator used by the chat page and API.
type ChatService interface {
	Start(ctx context.Context) (domain.Conversation, error)
	Conversation(ctx context.Context, id string) (domain.Conversation, error)
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
}

// SimulationRecorder is notified of every simulator run.
type SimulationRecorder interface {
	Simulation(active int)
}

type noopSimulations struct{}

func (noopSimulations) Simulation(int) {}

// queryValues returns every value of a repeated query parameter.
func queryValues(args interface{ PeekMulti(string) [][]byte }, key string) []string {
	raw := args.PeekMulti(key)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, string(v))
	}
	return out
}
