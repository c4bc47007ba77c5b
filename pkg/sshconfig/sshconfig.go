// Package sshconfig parses OpenSSH client config files into importable
// connection entries. It reads only the handful of directives a bridge
// connection needs; everything else is ignored.
package sshconfig

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/armorclaw/bridge/pkg/connections"
)

// Entry is one parsed "Host" block.
type Entry struct {
	Host                string
	Hostname            *string
	User                *string
	Port                *int
	IdentityFile        *string
	ServerAliveInterval *int
}

// Preview renders the connect target the way a UI picker would show it:
// "user@hostname[:port]".
func (e Entry) Preview() string {
	hostname := e.Host
	if e.Hostname != nil {
		hostname = *e.Hostname
	}
	var b strings.Builder
	if e.User != nil {
		b.WriteString(*e.User)
		b.WriteString("@")
	}
	b.WriteString(hostname)
	if e.Port != nil && *e.Port != 22 {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(*e.Port))
	}
	return b.String()
}

// ToConnectionInput converts e into what connections.Manager.Create
// expects. A public-key entry leaves the passphrase empty for the caller
// to prompt for; an entry with no IdentityFile defaults to password auth
// with an empty password, also left for the caller to fill in.
func (e Entry) ToConnectionInput() connections.NewConnectionInput {
	hostname := e.Host
	if e.Hostname != nil {
		hostname = *e.Hostname
	}
	username := "root"
	if e.User != nil {
		username = *e.User
	}
	port := 22
	if e.Port != nil {
		port = *e.Port
	}

	auth := connections.AuthMethod{Kind: "password"}
	if e.IdentityFile != nil {
		auth = connections.AuthMethod{Kind: "public_key", KeyPath: expandTilde(*e.IdentityFile)}
	}

	notes := "Imported from SSH config"
	var keepAlive *string
	var keepAliveInterval *int
	if e.ServerAliveInterval != nil {
		enabled := "enabled"
		keepAlive = &enabled
		keepAliveInterval = e.ServerAliveInterval
	}

	return connections.NewConnectionInput{
		Name:              e.Host,
		Protocol:          "ssh",
		Hostname:          hostname,
		Port:              port,
		Username:          username,
		Auth:              auth,
		Notes:             &notes,
		KeepAlive:         keepAlive,
		KeepAliveInterval: keepAliveInterval,
	}
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home := os.Getenv("HOME"); home != "" {
			return home + path[1:]
		}
	}
	return path
}

// Parse reads an OpenSSH client config file and returns one Entry per
// non-wildcard Host block. Host blocks matching a glob ("*", "?") are
// skipped entirely, matching the rest of the bridge's scope: an import
// target must name exactly one host.
func Parse(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	var currentHost string
	var haveHost bool
	props := map[string]string{}

	flush := func() {
		if haveHost {
			if entry, ok := buildEntry(currentHost, props); ok {
				entries = append(entries, entry)
			}
		}
		props = map[string]string{}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		key := strings.ToLower(fields[0])
		value := strings.Join(fields[1:], " ")

		switch key {
		case "host":
			flush()
			currentHost = value
			haveHost = true
		case "hostname", "user", "port", "serveraliveinterval":
			props[key] = value
		case "identityfile":
			// First IdentityFile wins; later ones in the same block are ignored.
			if _, ok := props["identityfile"]; !ok {
				props["identityfile"] = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return entries, nil
}

func buildEntry(host string, props map[string]string) (Entry, bool) {
	if strings.ContainsAny(host, "*?") {
		return Entry{}, false
	}

	entry := Entry{Host: host}
	if v, ok := props["hostname"]; ok {
		entry.Hostname = &v
	}
	if v, ok := props["user"]; ok {
		entry.User = &v
	}
	if v, ok := props["port"]; ok {
		if port, err := strconv.Atoi(v); err == nil {
			entry.Port = &port
		}
	}
	if v, ok := props["identityfile"]; ok {
		entry.IdentityFile = &v
	}
	if v, ok := props["serveraliveinterval"]; ok {
		if interval, err := strconv.Atoi(v); err == nil {
			entry.ServerAliveInterval = &interval
		}
	}
	return entry, true
}

// DefaultPath returns "$HOME/.ssh/config", falling back to the literal
// "~/.ssh/config" when $HOME is unset.
func DefaultPath() string {
	if home := os.Getenv("HOME"); home != "" {
		return home + "/.ssh/config"
	}
	return "~/.ssh/config"
}
