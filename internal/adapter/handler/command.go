package handler

import (
	"errors"
	"strconv"
	"strings"
)

// errBadFormat marks a command whose arguments did not parse; the caller
// replies with a per-command usage line and never reaches the ledger.
var errBadFormat = errors.New("bad command format")

// splitCode parses a single code argument: "A-001".
func splitCode(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return "", errBadFormat
	}
	return fields[0], nil
}

// splitCodeAmount parses "A-001 10".
func splitCodeAmount(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, errBadFormat
	}
	amount, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, errBadFormat
	}
	return fields[0], amount, nil
}

// splitCodeText parses "A-001 Some item name"; everything after the code is
// the free-text remainder.
func splitCodeText(args string) (string, string, error) {
	args = strings.TrimSpace(args)
	parts := strings.SplitN(args, " ", 2)
	if len(parts) != 2 {
		return "", "", errBadFormat
	}
	text := strings.TrimSpace(parts[1])
	if text == "" {
		return "", "", errBadFormat
	}
	return parts[0], text, nil
}
