package process

import (
	"context"
	"strings"
	"testing"
)

func TestRun_CapturesOutput(t *testing.T) {
	res, err := Run(context.Background(), []string{"echo", "hello"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestRunChecked_NonZeroExitIsError(t *testing.T) {
	_, err := RunChecked(context.Background(), []string{"false"})
	if err == nil {
		t.Fatal("RunChecked() with `false` should return an error")
	}
}

func TestCapture_TrimsOutput(t *testing.T) {
	out, err := Capture(context.Background(), []string{"echo", "  padded  "})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if out != "padded" {
		t.Errorf("Capture() = %q, want %q", out, "padded")
	}
}

func TestRun_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, []string{"echo", "hi"}); err == nil {
		t.Fatal("Run() with a cancelled context should return an error")
	}
}

func TestWithStdin(t *testing.T) {
	res, err := Run(context.Background(), []string{"cat"}, WithStdin("piped input"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "piped input" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "piped input")
	}
}

func TestFollow_StreamsLines(t *testing.T) {
	var lines []string
	err := Follow(context.Background(), []string{"printf", "a\\nb\\nc\\n"}, func(l string) {
		lines = append(lines, l)
	})
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(lines) != 3 || lines[0] != "a" || lines[2] != "c" {
		t.Errorf("lines = %v, want [a b c]", lines)
	}
}

func TestIsDryRunBypassed(t *testing.T) {
	t.Setenv(DirtyCmdRunEnv, "")
	if IsDryRunBypassed() {
		t.Error("IsDryRunBypassed() = true, want false when unset")
	}
	t.Setenv(DirtyCmdRunEnv, "1")
	if !IsDryRunBypassed() {
		t.Error("IsDryRunBypassed() = false, want true when set to 1")
	}
}
