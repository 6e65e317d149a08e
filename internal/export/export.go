package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/text/cases"

	"voiceforge-desktop/internal/logging"
	"voiceforge-desktop/internal/services"
)

// Supported formats.
const (
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
)

// invalidFormatMessage is reported for unsupported formats.
const invalidFormatMessage = "format must be md or pdf"

// Result captures one finished process run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor abstracts command execution for testability. A non-zero exit is
// reported through Result.ExitCode, not as an error; errors mean the process
// could not be run at all.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (Result, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps the export CLI.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// New constructs an export client. A zero timeout leaves runs unbounded.
func New(binary string, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("export binary required")
	}
	c := &Client{
		binary:  binary,
		timeout: timeout,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "export")
	return c, nil
}

// Binary returns the configured CLI binary.
func (c *Client) Binary() string {
	return c.binary
}

// NormalizeFormat case-folds format and checks it against the supported set.
func NormalizeFormat(format string) (string, error) {
	folded := cases.Fold().String(format)
	switch folded {
	case FormatMarkdown, FormatPDF:
		return folded, nil
	default:
		return "", services.Wrap(services.ErrValidation, "export", invalidFormatMessage, nil)
	}
}

// Args returns the CLI arguments for an export run.
func Args(sessionID uint32, format string) []string {
	return []string{"export", "--id", strconv.FormatUint(uint64(sessionID), 10), "--format", format}
}

// Export renders sessionID in format and returns the written path.
func (c *Client) Export(ctx context.Context, sessionID uint32, format string) (string, error) {
	normalized, err := NormalizeFormat(format)
	if err != nil {
		return "", err
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := Args(sessionID, normalized)
	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("running export", logging.String("binary", c.binary), logging.Any("args", args))

	start := time.Now()
	result, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "export", fmt.Sprintf("export timed out after %s", c.timeout), err)
		}
		return "", services.Wrap(services.ErrExternalTool, "export", spawnMessage(c.binary, err), err)
	}
	if result.ExitCode != 0 {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "export", fmt.Sprintf("export timed out after %s", c.timeout), runCtx.Err())
		}
		logger.Debug("export failed",
			logging.Int("exit_code", result.ExitCode),
			logging.Duration("elapsed", time.Since(start)),
		)
		// Message stays the raw stderr even when empty; Error() then reports the cause.
		cause := fmt.Errorf("%s exited with status %d", c.binary, result.ExitCode)
		return "", services.Wrap(services.ErrExternalTool, "export", result.Stderr, cause)
	}

	path := strings.TrimSpace(result.Stdout)
	logger.Debug("export completed", logging.String("path", path), logging.Duration("elapsed", time.Since(start)))
	return path, nil
}

func spawnMessage(binary string, err error) string {
	switch {
	case errors.Is(err, unix.ENOENT):
		return fmt.Sprintf("%s not found: %v", binary, err)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Sprintf("%s is not executable: %v", binary, err)
	default:
		return err.Error()
	}
}
