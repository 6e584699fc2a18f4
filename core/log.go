// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	log "github.com/sirupsen/logrus"
)

var logger = log.StandardLogger()

// SetLogger replaces the logger used by the package.
// Passing nil restores the logrus standard logger.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.StandardLogger()
	}
	logger = l
}

// Logger returns the logger used by the package.
func Logger() *log.Logger {
	return logger
}

// fatal reports an unrecoverable GPU object failure and terminates the process
// through the logger's ExitFunc. Callers return right after it, for loggers
// whose ExitFunc does not exit.
func fatal(err error, op string) {
	logger.WithError(err).WithField("op", op).Fatal("unrecoverable graphics failure")
}
