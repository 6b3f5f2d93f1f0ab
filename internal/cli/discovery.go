package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/claude-session-go/internal/errors"
)

// ExecutableName is the CLI binary looked up on PATH.
const ExecutableName = "claude"

// SkipVersionCheckEnv, when set to any value, turns the version warning off.
const SkipVersionCheckEnv = "CLAUDE_SESSION_SKIP_VERSION_CHECK"

const (
	// MinimumVersion is the oldest CLI known to emit partial stream-json
	// messages.
	MinimumVersion = "2.0.0"
	// VersionCheckTimeout bounds the "claude -v" probe.
	VersionCheckTimeout = 2 * time.Second
)

var versionPattern = regexp.MustCompile(`^([0-9]+\.[0-9]+\.[0-9]+)`)

// Config configures a Discoverer.
type Config struct {
	// CliPath, when set, is the only location tried.
	CliPath string
	// SkipVersionCheck disables the version warning.
	SkipVersionCheck bool
	Logger           *slog.Logger
}

// Discoverer finds the CLI binary. Discover returns its path or a
// *errors.CLINotFoundError listing where it looked.
type Discoverer interface {
	Discover(ctx context.Context) (string, error)
}

// IsInstalled reports whether d can locate the CLI.
func IsInstalled(ctx context.Context, d Discoverer) bool {
	_, err := d.Discover(ctx)

	return err == nil
}

type discoverer struct {
	cfg Config
	log *slog.Logger

	versionOnce sync.Once
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer returns a Discoverer for cfg, which may be nil.
func NewDiscoverer(cfg *Config) Discoverer {
	d := &discoverer{}
	if cfg != nil {
		d.cfg = *cfg
	}

	log := d.cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d.log = log.With("component", "cli_discovery")

	return d
}

// Discover implements Discoverer. The version is checked on the first
// successful call only.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	cliPath, err := d.findCLI()
	if err != nil {
		return "", err
	}

	d.log.Debug("Using Claude CLI", "cli_path", cliPath)

	d.versionOnce.Do(func() { d.checkVersion(ctx, cliPath) })

	return cliPath, nil
}

// findCLI returns the explicit path if it is executable, otherwise the first
// executable among PATH and the common install locations.
func (d *discoverer) findCLI() (string, error) {
	if explicit := d.cfg.CliPath; explicit != "" {
		if !isExecutableFile(explicit) {
			return "", &errors.CLINotFoundError{SearchedPaths: []string{explicit}}
		}

		return explicit, nil
	}

	if path, err := exec.LookPath(ExecutableName); err == nil {
		return path, nil
	}

	searched := []string{"$PATH"}

	for _, candidate := range commonPaths() {
		if isExecutableFile(candidate) {
			return candidate, nil
		}

		searched = append(searched, candidate)
	}

	d.log.Warn("Claude CLI not found", "searched_paths", searched)

	return "", &errors.CLINotFoundError{SearchedPaths: searched}
}

// commonPaths lists install locations checked after PATH.
func commonPaths() []string {
	paths := []string{
		"/usr/local/bin/" + ExecutableName,
		"/usr/bin/" + ExecutableName,
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".local", "bin", ExecutableName),
			filepath.Join(home, ".claude", "local", ExecutableName),
		)
	}

	return paths
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}

// ProbeVersion runs "<cliPath> -v" and returns the leading x.y.z of its
// output, such as "2.1.3" for "2.1.3 (Claude Code)".
func ProbeVersion(ctx context.Context, cliPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, cliPath, "-v").Output()
	if err != nil {
		return "", fmt.Errorf("run %s -v: %w", cliPath, err)
	}

	match := versionPattern.FindStringSubmatch(strings.TrimSpace(string(out)))
	if match == nil {
		return "", fmt.Errorf("unrecognized version output %q", strings.TrimSpace(string(out)))
	}

	return match[1], nil
}

// checkVersion warns when the CLI is older than MinimumVersion. Probe
// failures are logged at debug and otherwise ignored.
func (d *discoverer) checkVersion(ctx context.Context, cliPath string) {
	switch {
	case d.cfg.SkipVersionCheck:
		return
	case os.Getenv(SkipVersionCheckEnv) != "":
		d.log.Debug("Version check disabled", "env", SkipVersionCheckEnv)

		return
	}

	version, err := ProbeVersion(ctx, cliPath)
	if err != nil {
		d.log.Debug("Version check skipped", "error", err)

		return
	}

	if compareVersions(version, MinimumVersion) < 0 {
		d.log.Warn("Claude CLI is older than supported; stream-json output may lack partial messages",
			"version", version, "minimum", MinimumVersion)
	}
}

// compareVersions orders two dotted versions numerically. Missing or
// non-numeric parts count as zero.
func compareVersions(a, b string) int {
	return slices.Compare(versionParts(a), versionParts(b))
}

func versionParts(v string) []int {
	parts := make([]int, 3)

	for i, field := range strings.SplitN(v, ".", 3) {
		parts[i], _ = strconv.Atoi(field)
	}

	return parts
}
