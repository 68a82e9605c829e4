package gate_test

import (
	"context"
	"testing"

	"github.com/pingquote/pingquote/internal/gate"
)

func allow(allowAll bool) gate.PolicyFunc[uint] {
	return func(_ context.Context, _ uint, _ gate.Action, _ any) bool { return allowAll }
}

func TestAuthorizeZeroUser(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("quote", allow(true))
	if err := g.Authorize(context.Background(), 0, gate.ActionView, "quote", nil); err != gate.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthorizeNoPolicy(t *testing.T) {
	g := gate.NewGate[uint]()
	if err := g.Authorize(context.Background(), 1, gate.ActionView, "missing", nil); err != gate.ErrNoPolicyDefined {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
}

func TestAuthorizeDecision(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("quote", allow(true))
	g.Register("invite", allow(false))

	if err := g.Authorize(context.Background(), 7, gate.ActionUpdate, "quote", nil); err != nil {
		t.Errorf("expected allow, got %v", err)
	}
	if !g.Can(context.Background(), 7, gate.ActionUpdate, "quote", nil) {
		t.Error("Can should mirror Authorize")
	}
	if err := g.Authorize(context.Background(), 7, gate.ActionCreate, "invite", nil); err != gate.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
