package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deliverybot/discord-tracker/internal/pipeline"
)

func TestParseInfoPairs(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []pipeline.InfoPair
		wantErr bool
	}{
		{name: "empty", input: nil, want: nil},
		{
			name:  "single pair",
			input: []string{"dur=5s"},
			want:  []pipeline.InfoPair{{"dur", "5s"}},
		},
		{
			name:  "value containing equals",
			input: []string{"url=https://x?a=b"},
			want:  []pipeline.InfoPair{{"url", "https://x?a=b"}},
		},
		{
			name:  "multiple pairs keep order",
			input: []string{"b=2", "a=1"},
			want:  []pipeline.InfoPair{{"b", "2"}, {"a", "1"}},
		},
		{name: "missing separator", input: []string{"oops"}, wantErr: true},
		{name: "empty key", input: []string{"=v"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInfoPairs(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseInfoPairs(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("pair %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePRNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "numeric", input: "42", want: 42},
		{name: "empty", input: "", want: 0},
		{name: "non-numeric degrades to zero", input: "abc", want: 0},
		{name: "negative degrades to zero", input: "-3", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parsePRNumber(tt.input); got != tt.want {
				t.Errorf("parsePRNumber(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetOutput_WritesGitHubOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	old := outputPath
	outputPath = func() string { return path }
	defer func() { outputPath = old }()

	setOutput("success", "true")
	setOutput("message-id", "123")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "success=true\n") || !strings.Contains(content, "message-id=123\n") {
		t.Errorf("output file content: %q", content)
	}
}

func TestSetOutput_FlattensNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	old := outputPath
	outputPath = func() string { return path }
	defer func() { outputPath = old }()

	setOutput("error", "line one\nline two")

	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "\n") != 1 {
		t.Errorf("multi-line value must be flattened: %q", string(data))
	}
}

func TestEmitFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	old := outputPath
	outputPath = func() string { return path }
	defer func() { outputPath = old }()

	emitFailure(os.ErrPermission)

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "error=") || !strings.Contains(content, "success=false\n") {
		t.Errorf("failure outputs: %q", content)
	}
}

func TestUnknownSubcommand(t *testing.T) {
	rootCmd.SetArgs([]string{"bogus-action"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("unknown action must be a failure")
	}
}
