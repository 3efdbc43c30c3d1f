package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/catht823/journal-club-calendar-bot/pkg/buildinfo"
)

func TestVersionCommand_Text(t *testing.T) {
	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "jcbot ") {
		t.Errorf("output = %q, want jcbot prefix", out.String())
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-o", "json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var info buildinfo.Info
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if info.ServiceName != "jcbot" {
		t.Errorf("ServiceName = %q, want jcbot", info.ServiceName)
	}
}
