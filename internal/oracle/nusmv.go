// Package oracle submits a NuSMV model plus an LTL specification to the
// external model checker and parses its boolean verdict.
package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/ltlbench/internal/telemetry"
)

// Sentinel errors. All of them are fatal for the problem being checked
var (
	ErrProcess         = errors.New("oracle: model checker failed")
	ErrNoSpecification = errors.New("oracle: no specification found in output")
	ErrInvalidVerdict  = errors.New("oracle: invalid specification value")
)

// DefaultBinary is the executable looked up on PATH when Client.Binary is empty
const DefaultBinary = "NuSMV"

// waitDelay bounds how long Run waits for output pipes after the checker
// is killed by context cancellation.
const waitDelay = 2 * time.Second

var verdictPattern = regexp.MustCompile(`specification.*?\sis\s(\S+)`)

// Verifier decides an LTL specification against a model
type Verifier interface {
	Verify(ctx context.Context, model, spec string) (bool, error)
}

// Client runs a local NuSMV binary. Each call writes its own temporary
// input file, so a Client is safe for concurrent use.
type Client struct {
	Binary  string // executable name or path ("" = DefaultBinary)
	TempDir string // directory for input files ("" = os.TempDir())
}

// NewClient creates a client for the given binary
func NewClient(binary, tempDir string) *Client {
	return &Client{Binary: binary, TempDir: tempDir}
}

// Program joins a model and a specification into one checker input
func Program(model, spec string) string {
	return fmt.Sprintf("%s\nLTLSPEC %s\n", model, spec)
}

// Verify checks spec against model
func (c *Client) Verify(ctx context.Context, model, spec string) (bool, error) {
	return c.Check(ctx, Program(model, spec))
}

// Check runs the checker on a complete program and returns the verdict of
// its first specification.
func (c *Client) Check(ctx context.Context, code string) (verdict bool, err error) {
	outcome := telemetry.OutcomeFailure
	defer telemetry.ObserveOracle(time.Now(), &outcome)

	path, err := c.writeInput(code)
	if err != nil {
		return false, err
	}
	defer os.Remove(path)

	stdout, err := c.run(ctx, path)
	if err != nil {
		return false, err
	}

	verdict, err = ParseVerdict(stdout)
	if err != nil {
		return false, err
	}
	outcome = telemetry.OutcomeFalse
	if verdict {
		outcome = telemetry.OutcomeTrue
	}
	return verdict, nil
}

func (c *Client) writeInput(code string) (string, error) {
	f, err := os.CreateTemp(c.TempDir, "ltlbench-*.smv")
	if err != nil {
		return "", fmt.Errorf("create model file: %w", err)
	}
	if _, err := f.WriteString(code); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write model file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close model file: %w", err)
	}
	return f.Name(), nil
}

func (c *Client) run(ctx context.Context, path string) (string, error) {
	binary := c.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: %s: %s", ErrProcess, binary, msg)
	}
	return stdout.String(), nil
}

// ParseVerdict extracts the first "specification ... is <value>" result
// from checker output.
func ParseVerdict(output string) (bool, error) {
	m := verdictPattern.FindStringSubmatch(output)
	if m == nil {
		return false, ErrNoSpecification
	}
	switch m[1] {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidVerdict, m[1])
	}
}
