package handlers

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/geodex/config"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/logger"
)

// runner invokes external metadata tools (pdal, gdalinfo, ogrinfo) and
// captures their stdout. One runner is shared by all handlers of a Set.
type runner struct {
	pdal     string
	gdalinfo string
	ogrinfo  string
	timeout  time.Duration
	log      *zap.SugaredLogger
}

func newRunner(cfg config.ToolsConfig, log *zap.SugaredLogger) *runner {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &runner{
		pdal:     cfg.PDALPath,
		gdalinfo: cfg.GDALInfo,
		ogrinfo:  cfg.OGRInfo,
		timeout:  timeout,
		log:      log.Named("handlers.exec"),
	}
}

// run executes bin with args and returns its stdout. Failures include the
// quoted command line and captured stderr for reproducibility.
func (r *runner) run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmdline := shellquote.Join(append([]string{bin}, args...)...)
	start := time.Now()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, errors.Wrapf(err, "%s: %s", cmdline, stderr.String())
		}
		return nil, errors.Wrapf(err, "%s", cmdline)
	}

	r.log.Debugw("Tool completed",
		logger.FieldCommand, cmdline,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return stdout.Bytes(), nil
}
