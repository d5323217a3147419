// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package util

import "strings"

// shellSafe lists the characters that never need quoting in a POSIX shell word.
const shellSafe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./=:@+,%"

// QuoteArgForShell quotes an argument for safe use in a POSIX shell command.
// It uses single quotes and escapes any internal single quotes.
func QuoteArgForShell(arg string) string {
	quotedArg := strings.ReplaceAll(arg, "'", `'\''`)
	return `'` + quotedArg + `'`
}

// QuoteIfNeeded returns arg unchanged when it is a plain shell word and
// single-quotes it otherwise.
func QuoteIfNeeded(arg string) string {
	if arg == "" {
		return "''"
	}
	for _, r := range arg {
		if !strings.ContainsRune(shellSafe, r) {
			return QuoteArgForShell(arg)
		}
	}
	return arg
}

// FormatCommand renders a command and its arguments as a copy-pasteable
// shell line. Used for dry runs and log records.
func FormatCommand(command string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuoteIfNeeded(command))
	for _, arg := range args {
		parts = append(parts, QuoteIfNeeded(arg))
	}
	return strings.Join(parts, " ")
}
