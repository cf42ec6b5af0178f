package ui

import (
	"regexp"
	"strings"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func containsPlain(rendered, want string) bool {
	return strings.Contains(ansi.ReplaceAllString(rendered, ""), want)
}
