package cmd

import "testing"

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"serve", "mcp", "migrate", "rescore", "version"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("subcommand %q is not registered", name)
		}
	}
}

func TestRootCommandMetadata(t *testing.T) {
	if rootCmd.Use != "lessonbank" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "lessonbank")
	}
	if !rootCmd.SilenceUsage {
		t.Error("rootCmd should silence usage on runtime errors")
	}
}

func TestServeFlags(t *testing.T) {
	if serveCmd.Flags().Lookup("addr") == nil {
		t.Error("serve is missing the --addr flag")
	}
}

func TestRescoreFlags(t *testing.T) {
	for _, name := range []string{"batch-size", "dry-run"} {
		if rescoreCmd.Flags().Lookup(name) == nil {
			t.Errorf("rescore is missing the --%s flag", name)
		}
	}
}
