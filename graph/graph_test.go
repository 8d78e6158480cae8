package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func appendStep(name, next string) (string, NodeType, NodeFunc) {
	return name, NodeTypeStep, func(ctx context.Context, state State) (State, error) {
		order, _ := state["order"].([]string)
		state["order"] = append(order, name)
		return state, nil
	}
}

func TestExecuteFollowsBranch(t *testing.T) {
	b := NewBuilder()
	b.AddNode("start", NodeTypeStart, func(ctx context.Context, state State) (State, error) {
		state["order"] = []string{"start"}
		return state, nil
	})
	b.AddConditionNode("gate", func(ctx context.Context, state State) (string, error) {
		return state["label"].(string), nil
	}, map[string]string{
		"left":  "left",
		"right": "right",
	})
	b.AddNode(appendStep("left", ""))
	b.AddNode(appendStep("right", ""))
	b.AddNode("end", NodeTypeEnd, nil)
	b.AddEdge("start", "gate")
	b.AddEdge("left", "end")
	b.AddEdge("right", "end")
	g := b.Build()

	state, err := g.Execute(context.Background(), State{"label": "right"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	order := state["order"].([]string)
	got := strings.Join(order, ",")
	if got != "start,right" {
		t.Errorf("unexpected execution order %q", got)
	}
}

func TestExecuteUnknownBranchLabel(t *testing.T) {
	b := NewBuilder()
	b.AddNode("start", NodeTypeStart, func(ctx context.Context, state State) (State, error) {
		return state, nil
	})
	b.AddConditionNode("gate", func(ctx context.Context, state State) (string, error) {
		return "nowhere", nil
	}, map[string]string{"somewhere": "end"})
	b.AddNode("end", NodeTypeEnd, nil)
	b.AddEdge("start", "gate")
	g := b.Build()

	if _, err := g.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected error for unmapped branch label")
	}
}

func TestExecuteDetectsLoops(t *testing.T) {
	b := NewBuilder()
	b.AddNode("start", NodeTypeStart, func(ctx context.Context, state State) (State, error) {
		return state, nil
	})
	b.AddNode(appendStep("loop", ""))
	b.AddNode("end", NodeTypeEnd, nil)
	b.AddEdge("start", "loop")
	b.AddEdge("loop", "loop")
	b.SetMaxVisits(3)
	g := b.Build()

	_, err := g.Execute(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "infinite loop") {
		t.Fatalf("expected loop detection error, got %v", err)
	}
}

func TestExecuteReturnsPartialStateOnFailure(t *testing.T) {
	stepErr := errors.New("boom")
	b := NewBuilder()
	b.AddNode("start", NodeTypeStart, func(ctx context.Context, state State) (State, error) {
		state["progress"] = "started"
		return state, nil
	})
	b.AddNode("fail", NodeTypeStep, func(ctx context.Context, state State) (State, error) {
		return nil, stepErr
	})
	b.AddNode("end", NodeTypeEnd, nil)
	b.AddEdge("start", "fail")
	b.AddEdge("fail", "end")
	g := b.Build()

	state, err := g.Execute(context.Background(), nil)
	if !errors.Is(err, stepErr) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
	if state["progress"] != "started" {
		t.Errorf("expected partial state to survive failure, got %#v", state)
	}
}
