package main

import (
	"regexp"

	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// newLogger builds the console logger. Output goes to file when one is
// given, otherwise to stderr so it never mixes with the report on stdout.
func newLogger(level, file string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Annotate(err, "invalid --log-level")
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	if file != "" {
		cfg.OutputPaths = []string{file}
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	return log, errors.Trace(err)
}

const redactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx in key/value connection strings
	passwordPattern = regexp.MustCompile(`(?i)\b(password|pwd|pass)=[^;&\s]+`)

	// user:pass@ in URL connection strings
	userinfoPattern = regexp.MustCompile(`://[^:/@\s]+:[^@/\s]+@`)
)

// sanitize removes credentials that drivers may echo back in error
// messages.
func sanitize(s string) string {
	s = passwordPattern.ReplaceAllString(s, "${1}="+redactedText)
	return userinfoPattern.ReplaceAllString(s, "://"+redactedText+"@")
}
