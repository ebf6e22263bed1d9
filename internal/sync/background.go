package sync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"focusync/backend/offline"
	"focusync/internal/utils"
)

// BackgroundCommand is the hidden CLI command run by SpawnBackgroundFlush
const BackgroundCommand = "_internal_background_flush"

// DefaultBackgroundTimeout bounds a detached flush
const DefaultBackgroundTimeout = 30 * time.Second

// SpawnBackgroundFlush spawns a detached copy of the running executable to
// flush the queue, so the CLI can exit right after an offline write.
// extraArgs are appended (e.g. --config).
func SpawnBackgroundFlush(extraArgs ...string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}

	executable, err = filepath.EvalSymlinks(executable)
	if err != nil {
		return err
	}

	args := append([]string{BackgroundCommand}, extraArgs...)
	cmd := exec.Command(executable, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	// Not waited for; the parent exits first
	return cmd.Start()
}

// RunBackgroundFlush performs one flush for a detached process, logging to
// the background log file. Failures are logged, never returned, except a
// failure to reach the point of flushing at all.
func RunBackgroundFlush(ctx context.Context, c *Coordinator, timeout time.Duration) error {
	bgLogger, err := utils.NewBackgroundLogger()
	if err != nil {
		utils.Debugf("background logging disabled: %v", err)
	} else if bgLogger.IsEnabled() {
		utils.Debugf("background flush logging to %s", bgLogger.GetLogPath())
	}
	defer bgLogger.Close()
	bgLogger.Printf("Started background flush at %s (PID: %d)", time.Now().Format(time.RFC3339), os.Getpid())

	if timeout <= 0 {
		timeout = DefaultBackgroundTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pending := c.engine.PendingCount(ctx)
	bgLogger.Printf("%d mutations pending", pending)
	if pending == 0 {
		return nil
	}

	res, ran, err := c.FlushNow(ctx, offline.FlushOptions{})
	switch {
	case !ran:
		bgLogger.Printf("Remote offline; mutations stay queued")
	case err != nil:
		bgLogger.Printf("Flush error: %v", err)
	case res.IdentitySource == offline.IdentityNone:
		bgLogger.Printf("No signed in user; %d mutations wait for one", len(res.Pending))
	default:
		bgLogger.Printf("Flush done as %q (%s): %d applied, %d skipped, %d pending",
			res.UserID, res.IdentitySource, len(res.Applied), len(res.Skipped), len(res.Pending))
		for _, f := range res.Failures {
			bgLogger.Printf("  %v", f)
		}
	}

	bgLogger.Printf("Finished at %s", time.Now().Format(time.RFC3339))
	return nil
}
