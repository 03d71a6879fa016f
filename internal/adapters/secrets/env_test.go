package secrets

import "testing"

func TestEnvGet(t *testing.T) {
	t.Setenv("ROLLCALL_TEST_SECRET", "s3cret")

	v, err := NewEnv().Get("ROLLCALL_TEST_SECRET")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "s3cret" {
		t.Fatalf("expected s3cret, got %q", v)
	}

	if _, err := NewEnv().Get("ROLLCALL_TEST_SECRET_MISSING"); err == nil {
		t.Fatal("expected error for unset secret")
	}
}
