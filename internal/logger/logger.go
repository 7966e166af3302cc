// Package logger is the zap setup every other splitcmd package logs
// through via a package-level Log variable.
package logger

import "go.uber.org/zap"

// Log is the process-wide structured logger. Init must run before any
// other package logs; cmd/root.go does this in PersistentPreRunE.
var Log *zap.Logger = zap.NewNop()

func Init(debug bool) {
	var l *zap.Logger
	var err error

	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		l = zap.NewNop()
	}

	Log = l
}

func Sync() {
	_ = Log.Sync()
}
