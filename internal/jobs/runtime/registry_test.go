package runtime

import (
	"testing"
)

type stubHandler struct {
	jobType string
}

func (h *stubHandler) Type() string { return h.jobType }

func (h *stubHandler) Run(jc *Context) error { return nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	h := &stubHandler{jobType: "calendar_build"}
	if err := r.Register(h); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, ok := r.Get("calendar_build")
	if !ok || got != Handler(h) {
		t.Fatalf("get: ok=%v got=%v", ok, got)
	}
	if _, ok := r.Get("unknown"); ok {
		t.Fatalf("unknown job type resolved")
	}
}

func TestRegistryRejectsDuplicatesAndBadHandlers(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); err == nil {
		t.Fatalf("nil handler accepted")
	}
	if err := r.Register(&stubHandler{}); err == nil {
		t.Fatalf("empty type accepted")
	}
	if err := r.Register(&stubHandler{jobType: "x"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(&stubHandler{jobType: "x"}); err == nil {
		t.Fatalf("duplicate accepted")
	}
}
