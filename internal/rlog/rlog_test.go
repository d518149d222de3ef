package rlog

import (
	"os"
	"testing"
)

func TestDebugTrueWhenSet(t *testing.T) {
	t.Setenv("DEBUG", "")
	if !Debug() {
		t.Fatal("Debug() = false, want true when DEBUG is set (even to empty string)")
	}
}

func TestDebugFalseWhenUnset(t *testing.T) {
	prev, had := os.LookupEnv("DEBUG")
	os.Unsetenv("DEBUG")
	t.Cleanup(func() {
		if had {
			os.Setenv("DEBUG", prev)
		}
	})

	if Debug() {
		t.Fatal("Debug() = true, want false when DEBUG is unset")
	}
}
