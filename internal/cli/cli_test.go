package cli

import (
	"testing"
)

func TestRootCommandHasRunSubcommand(t *testing.T) {
	root := NewRootCommand()
	run, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatalf("Find(run): %v", err)
	}
	if run.Name() != "run" {
		t.Fatalf("expected run subcommand, got %q", run.Name())
	}
}

func TestGlobalFlagDefaults(t *testing.T) {
	root := NewRootCommand()
	imageDir, err := root.PersistentFlags().GetString("image-dir")
	if err != nil {
		t.Fatal(err)
	}
	if imageDir != "/tmp/rdocker/images" {
		t.Fatalf("--image-dir default = %q", imageDir)
	}

	containerDir, err := root.PersistentFlags().GetString("container-dir")
	if err != nil {
		t.Fatal(err)
	}
	if containerDir != "/tmp/rdocker/containers" {
		t.Fatalf("--container-dir default = %q", containerDir)
	}
}

func TestRunFlagDefaults(t *testing.T) {
	root := NewRootCommand()
	run, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatal(err)
	}

	mem, err := run.Flags().GetString("memory")
	if err != nil {
		t.Fatal(err)
	}
	if mem != "1G" {
		t.Fatalf("--memory default = %q, want 1G", mem)
	}

	swap, err := run.Flags().GetInt("memory-swap")
	if err != nil {
		t.Fatal(err)
	}
	if swap != -1 {
		t.Fatalf("--memory-swap default = %d, want -1", swap)
	}

	shares, err := run.Flags().GetInt("cpu-shares")
	if err != nil {
		t.Fatal(err)
	}
	if shares != 0 {
		t.Fatalf("--cpu-shares default = %d, want 0", shares)
	}
}

func TestRunRequiresImageName(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"run", "--command", "/bin/echo"})
	root.SetOut(discard{})
	root.SetErr(discard{})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error when --image-name is missing")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
