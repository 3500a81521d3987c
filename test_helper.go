package gridfolio

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// Command holds a command and its expected output.
type Command struct {
	Cmd      string
	Expected string
}

// buildGfo builds the gfo command and returns the path to the executable.
func buildGfo(t *testing.T, tmp string) string {
	t.Helper()

	output := filepath.Join(tmp, "gfo")

	buildCmd := exec.Command("go", "build", "-o", output, "./gfo/")
	err := buildCmd.Run()
	if err != nil {
		t.Fatalf("failed to build gfo command: %v", err)
	}

	return output
}

// parseTestableCommands parses a markdown file to extract commands and their expected outputs.
func parseTestableCommands(t *testing.T, file string) []Command {
	t.Helper()

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	repo := string(content)
	re := regexp.MustCompile("(?m)```bash\\n(gfo.*?)\\n```\\n\\n```console\n((.|\\n)*?)```")
	matches := re.FindAllStringSubmatch(repo, -1)

	var commands []Command
	for _, match := range matches {
		commands = append(commands, Command{Cmd: match[1], Expected: match[2]})
	}

	return commands
}

// runTestableCommands runs the testable commands from a given markdown file.
func runTestableCommands(t *testing.T, file string) {
	t.Helper()

	tmp := t.TempDir()
	gfoPath := buildGfo(t, tmp)

	commands := parseTestableCommands(t, file)

	for _, cmd := range commands {
		args := strings.Fields(cmd.Cmd)
		t.Log("Running command:", gfoPath, args)
		command := exec.Command(gfoPath, args[1:]...)
		command.Dir = tmp
		output, err := command.CombinedOutput()
		if err != nil {
			t.Fatalf("failed to run command: %v, output: \n%s", err, output)
		}
		result := string(output)
		// replace tabs with spaces for consistent comparison
		result = strings.ReplaceAll(result, "\t", "        ")

		if cmd.Expected != result {
			t.Errorf("expected output:\n%q\nbut got:\n%q", cmd.Expected, result)
		}
	}
}
