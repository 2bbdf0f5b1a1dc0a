// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package klog is the leveled logger used throughout pscore. It wraps
// logrus the way the teacher repo's pkg/log wraps its own emitter: a
// single package-level logger, a handful of Xxxf helpers, and a
// structured "fields" escape hatch for call sites that want to attach
// a pid or chan without building a format string.
package klog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetDebug toggles debug-level tracing of process allocation, fork, and
// scheduler selection. Off by default: a teaching
// kernel's scheduler loop runs often enough to make info-level tracing
// of every tick noisy.
func SetDebug(on bool) {
	if on {
		std.SetLevel(logrus.DebugLevel)
	} else {
		std.SetLevel(logrus.InfoLevel)
	}
}

// Fields is a structured log context, e.g. klog.Fields{"pid": p.Pid}.
type Fields = logrus.Fields

func Debugf(format string, args ...any) { std.Debugf(format, args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Warningf(format string, args ...any) {
	std.Warnf(format, args...)
}
func Errorf(format string, args ...any) { std.Errorf(format, args...) }

// WithFields returns an entry pre-populated with structured context,
// e.g. klog.WithFields(klog.Fields{"pid": 3}).Debugf("forked")
func WithFields(f Fields) *logrus.Entry {
	return std.WithFields(f)
}
