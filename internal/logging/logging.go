// Package logging builds the process logger. Reports go to stdout, so logs always go to stderr.
package logging

import (
	"io"
	"os"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"

	"github.com/HaPhanBaoMinh/sre/internal/config"
)

// New returns a console logger at level ("debug", "info", "warn", "error", "none") writing to w.
// A nil w means stderr.
func New(level string, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(config.ParseLevel(level)),
	)
	return zap.New(core)
}

// RedirectKlog sends client-go's klog output through logger.
func RedirectKlog(logger *zap.Logger) {
	klog.SetLogger(zapr.NewLogger(logger.Named("client-go")))
}
