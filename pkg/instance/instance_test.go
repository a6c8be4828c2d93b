package instance

import "testing"

func TestIDPrefersEnv(t *testing.T) {
	t.Setenv(EnvWorkerID, " publisher-7 ")
	if got := ID("outbox-publisher"); got != "publisher-7" {
		t.Fatalf("expected env id, got %q", got)
	}
}

func TestIDFallsBack(t *testing.T) {
	t.Setenv(EnvWorkerID, "")
	if got := ID("cron-worker"); got == "" {
		t.Fatal("expected a non-empty id")
	}
}
