package query

import (
	"context"
	"testing"
)

func echoCallable(ctx context.Context, params map[string]any) (any, error) {
	return params, nil
}

func TestCustomRegistry_RegisterAndCall(t *testing.T) {
	reg, err := NewCustomRegistry()
	if err != nil {
		t.Fatalf("NewCustomRegistry failed: %v", err)
	}
	if err := reg.Register("echo", "returns its params", echoCallable, ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	out, err := reg.Call(context.Background(), "echo", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got := out.(map[string]any)["x"]; got != 1 {
		t.Errorf("Call returned %v, want params echoed back", out)
	}
}

func TestCustomRegistry_DuplicateNameRejected(t *testing.T) {
	reg, _ := NewCustomRegistry()
	_ = reg.Register("echo", "", echoCallable, "")
	if err := reg.Register("echo", "", echoCallable, ""); err != ErrQueryExists {
		t.Errorf("second Register error = %v, want ErrQueryExists", err)
	}
}

func TestCustomRegistry_Call_UnknownName(t *testing.T) {
	reg, _ := NewCustomRegistry()
	if _, err := reg.Call(context.Background(), "ghost", nil); err == nil {
		t.Fatal("expected an error calling an unregistered query")
	}
}

func TestCustomRegistry_Register_RejectsInvalidParamRule(t *testing.T) {
	reg, _ := NewCustomRegistry()
	err := reg.Register("broken", "", echoCallable, "params.x +")
	if err == nil {
		t.Fatal("expected Register to reject a malformed CEL expression")
	}
}

func TestCustomRegistry_Call_ParamRuleEnforced(t *testing.T) {
	reg, _ := NewCustomRegistry()
	if err := reg.Register("needsAge", "", echoCallable, `"age" in params && params.age >= 18`); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := reg.Call(context.Background(), "needsAge", map[string]any{"age": 12}); err == nil {
		t.Fatal("expected Call to reject params failing the CEL rule")
	}

	if _, err := reg.Call(context.Background(), "needsAge", map[string]any{"age": 21}); err != nil {
		t.Errorf("expected Call to accept valid params, got %v", err)
	}
}

func TestCustomRegistry_List(t *testing.T) {
	reg, _ := NewCustomRegistry()
	_ = reg.Register("a", "first", echoCallable, "")
	_ = reg.Register("b", "second", echoCallable, "")

	entries := reg.List()
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(entries))
	}
}

func TestCustomRegistry_Unregister(t *testing.T) {
	reg, _ := NewCustomRegistry()
	_ = reg.Register("temp", "", echoCallable, "")
	reg.Unregister("temp")

	if _, err := reg.Call(context.Background(), "temp", nil); err == nil {
		t.Fatal("expected Call to fail after Unregister")
	}
}
