package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptYesNo asks question on stdout and reads y/n from stdin.
// EOF counts as "no".
func PromptYesNo(question string) bool {
	return PromptYesNoFrom(os.Stdin, os.Stdout, question)
}

// PromptYesNoFrom asks question on out and reads the answer from in,
// re-asking until it gets y or n.
func PromptYesNoFrom(in io.Reader, out io.Writer, question string) bool {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "%s (y/n): ", question)
		response, err := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))

		switch response {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		if err != nil {
			return false
		}
		fmt.Fprintln(out, "Please enter y or n")
	}
}

// IsInteractive reports whether stdin is a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptSecret reads a line without echo when stdin is a terminal, and a
// plain line otherwise (piped input).
func PromptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
