// Package rlog provides the runtime's structured logger and its DEBUG-gated
// pre/post diagnostic dumps, grounded on lazydocker's pkg/log DEBUG switch
// and the original rubber-docker source's paired debug prints around each
// bring-up stage.
package rlog

import (
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if Debug() {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// Debug reports whether the DEBUG environment variable is set to any value,
// per spec.md §6.3.
func Debug() bool {
	_, ok := os.LookupEnv("DEBUG")
	return ok
}

// Stage logs entry into a named bring-up stage.
func Stage(name string) {
	log.Infof("stage: %s", name)
}

// Fatal logs a stage-labeled diagnostic naming the failing resource and the
// underlying error, then terminates the process. This is the single funnel
// spec.md §7 calls for: "the stage that detects them emits a single
// diagnostic and unwinds the process."
func Fatal(stage, resource string, err error) {
	log.WithFields(logrus.Fields{
		"stage":    stage,
		"resource": resource,
	}).Error(err)
	os.Exit(1)
}

// Dump runs a short read-only diagnostic command and logs its output at
// debug level, labeled with when it was taken relative to a stage. It is a
// no-op unless DEBUG is set. Grounded on the original source's
// util::print_debug, which shells out to lsns/hostname/findmnt/tree/pwd
// around each stage transition.
func Dump(label string, name string, args ...string) {
	if !Debug() {
		return
	}
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		log.Debugf("%s: %s %v: %v", label, name, args, err)
		return
	}
	log.Debugf("%s:\n%s", label, out)
}

// DumpFile logs the contents of a /proc pseudo-file for diagnostics (e.g.
// /proc/self/mountinfo, /proc/self/ns/*), the Go-native equivalent of the
// original source's shelling out to findmnt/lsns.
func DumpFile(label, path string) {
	if !Debug() {
		return
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Debugf("%s: reading %s: %v", label, path, err)
		return
	}
	log.Debugf("%s (%s):\n%s", label, path, b)
}
