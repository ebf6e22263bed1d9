package utils

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// mockStdin replaces os.Stdin with a pipe containing test input
func mockStdin(t *testing.T, input string) func() {
	oldStdin := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}

	os.Stdin = r

	// Write input in a goroutine
	go func() {
		defer w.Close()
		io.WriteString(w, input)
	}()

	return func() {
		os.Stdin = oldStdin
		r.Close()
	}
}

func TestPromptYesNo_Yes(t *testing.T) {
	inputs := []string{
		"y\n",
		"Y\n",
		"yes\n",
		"YES\n",
		"Yes\n",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			cleanup := mockStdin(t, input)
			defer cleanup()

			result := PromptYesNo("Test question")
			if !result {
				t.Errorf("PromptYesNo(%q) = false, want true", input)
			}
		})
	}
}

func TestPromptYesNo_No(t *testing.T) {
	inputs := []string{
		"n\n",
		"N\n",
		"no\n",
		"NO\n",
		"No\n",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			cleanup := mockStdin(t, input)
			defer cleanup()

			result := PromptYesNo("Test question")
			if result {
				t.Errorf("PromptYesNo(%q) = true, want false", input)
			}
		})
	}
}

func TestPromptYesNoFrom_RetriesInvalidInput(t *testing.T) {
	var out bytes.Buffer
	result := PromptYesNoFrom(strings.NewReader("maybe\nsure\ny\n"), &out, "Discard queue")
	if !result {
		t.Error("expected yes after two invalid answers")
	}
	if got := strings.Count(out.String(), "Please enter y or n"); got != 2 {
		t.Errorf("expected 2 retry hints, got %d in %q", got, out.String())
	}
}

func TestPromptYesNoFrom_EOFIsNo(t *testing.T) {
	var out bytes.Buffer
	if PromptYesNoFrom(strings.NewReader(""), &out, "Discard queue") {
		t.Error("EOF should count as no")
	}
	if PromptYesNoFrom(strings.NewReader("y"), &out, "Discard queue") != true {
		t.Error("answer without trailing newline should still be read")
	}
}

func TestPromptYesNo_CaseInsensitive(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"Y\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"yes\n", true},
		{"Yes\n", true},
		{"yEs\n", true},
		{"N\n", false},
		{"n\n", false},
		{"NO\n", false},
		{"no\n", false},
		{"No\n", false},
		{"nO\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cleanup := mockStdin(t, tt.input)
			defer cleanup()

			result := PromptYesNo("Test question")
			if result != tt.expected {
				t.Errorf("PromptYesNo(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPromptYesNo_WhitespaceHandling(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{" y\n", true},
		{"y \n", true},
		{" y \n", true},
		{"  yes  \n", true},
		{" n\n", false},
		{"n \n", false},
		{" n \n", false},
		{"  no  \n", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cleanup := mockStdin(t, tt.input)
			defer cleanup()

			result := PromptYesNo("Test question")
			if result != tt.expected {
				t.Errorf("PromptYesNo(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPromptYesNo_OutputFormat(t *testing.T) {
	cleanup := mockStdin(t, "y\n")
	defer cleanup()

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	question := "Do you want to continue"
	PromptYesNo(question)

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	// Check that the question appears in the output
	if !strings.Contains(output, question) {
		t.Errorf("Output should contain question %q, got: %q", question, output)
	}

	// Check that it prompts for y/n
	if !strings.Contains(output, "(y/n)") {
		t.Errorf("Output should contain '(y/n)', got: %q", output)
	}
}

// TestPromptYesNo_VariousResponses tests different valid response patterns
func TestPromptYesNo_VariousResponses(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
		desc     string
	}{
		{
			name:     "single letter yes",
			input:    "y\n",
			expected: true,
			desc:     "Single letter y should be accepted",
		},
		{
			name:     "full word yes",
			input:    "yes\n",
			expected: true,
			desc:     "Full word yes should be accepted",
		},
		{
			name:     "single letter no",
			input:    "n\n",
			expected: false,
			desc:     "Single letter n should be accepted",
		},
		{
			name:     "full word no",
			input:    "no\n",
			expected: false,
			desc:     "Full word no should be accepted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := mockStdin(t, tt.input)
			defer cleanup()

			result := PromptYesNo("Test question")
			if result != tt.expected {
				t.Errorf("%s: PromptYesNo() = %v, want %v", tt.desc, result, tt.expected)
			}
		})
	}
}
