package adapter

import (
	"strconv"
	"strings"

	"github.com/pingcap/errors"
)

// DSN is a connection description in the h=host,u=user,p=pass,P=port,D=db
// form. Commas inside values are escaped as "\,".
type DSN struct {
	Host     string
	User     string
	Password string
	// Port is 0 when not given; adapters substitute their default.
	Port     int
	Database string
	// HasDatabase is true when a D part was present, even if empty.
	HasDatabase bool
}

// ParseDSN parses the DSN micro-syntax. Parts without "=" are ignored; a
// part is split at its last "=".
func ParseDSN(s string) (DSN, error) {
	var d DSN
	for _, part := range splitEscaped(s) {
		part = strings.ReplaceAll(part, `\,`, ",")

		i := strings.LastIndex(part, "=")
		if i < 0 {
			continue
		}
		key, value := part[:i], part[i+1:]

		switch key {
		case "h":
			d.Host = value
		case "u":
			d.User = value
		case "p":
			d.Password = value
		case "P":
			port, err := strconv.Atoi(value)
			if err != nil || port <= 0 || port > 65535 {
				return DSN{}, errors.Errorf("DSN contains invalid port %q", value)
			}
			d.Port = port
		case "D":
			d.Database = value
			d.HasDatabase = true
		default:
			return DSN{}, errors.Trace(ErrInvalidDSNKey)
		}
	}
	return d, nil
}

// splitEscaped splits on commas that are not preceded by a backslash.
func splitEscaped(s string) []string {
	var (
		parts []string
		start int
	)
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && (i == 0 || s[i-1] != '\\') {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// WithDatabase returns a copy of d pointing at another database.
func (d DSN) WithDatabase(name string) DSN {
	d.Database = name
	d.HasDatabase = true
	return d
}

// PortOr returns the port, or def when none was given.
func (d DSN) PortOr(def int) int {
	if d.Port == 0 {
		return def
	}
	return d.Port
}

// HostOr returns the host, or def when none was given.
func (d DSN) HostOr(def string) string {
	if d.Host == "" {
		return def
	}
	return d.Host
}

// String renders the DSN back in micro-syntax with the password redacted.
func (d DSN) String() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+strings.ReplaceAll(v, ",", `\,`))
		}
	}
	add("h", d.Host)
	add("u", d.User)
	if d.Password != "" {
		parts = append(parts, "p="+redacted)
	}
	if d.Port != 0 {
		add("P", strconv.Itoa(d.Port))
	}
	if d.HasDatabase {
		parts = append(parts, "D="+strings.ReplaceAll(d.Database, ",", `\,`))
	}
	return strings.Join(parts, ",")
}

const redacted = "[REDACTED]"
