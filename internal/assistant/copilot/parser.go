// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package copilot

import (
	"regexp"
	"strings"
)

// bannerPatterns match the decorative header lines the Copilot CLI prints
// before the actual answer in non-interactive mode.
var bannerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^GitHub Copilot CLI`),
	regexp.MustCompile(`(?i)^An AI-powered coding assistant`),
	regexp.MustCompile(`^═+`),
	regexp.MustCompile(`^─+`),
	regexp.MustCompile(`^\s*$`),
	regexp.MustCompile(`(?i)^Loading`),
	regexp.MustCompile(`(?i)^Thinking`),
	regexp.MustCompile(`(?i)^Processing`),
}

var (
	fencedCodeRe = regexp.MustCompile("(?s)```(?:\\w+)?\n(.*?)\n```")
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")
)

// ScrubOutput strips the CLI's banner and progress lines and returns the
// trimmed answer. If scrubbing would remove everything, the trimmed original
// output is returned instead so the caller never loses a real answer.
func ScrubOutput(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")

	var kept []string
	started := false
	for _, line := range lines {
		if !started {
			if matchesBanner(line) {
				continue
			}
			started = true
		}
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}

	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))
	if cleaned == "" {
		return strings.TrimSpace(output)
	}
	return cleaned
}

// ExtractCode pulls the code out of a modify_code response. Markdown fences
// win over inline backticks; with several candidates the longest one is taken
// as the modified code body. Without any code markers the scrubbed response is
// returned as-is.
func ExtractCode(output string) string {
	if matches := fencedCodeRe.FindAllStringSubmatch(output, -1); len(matches) > 0 {
		return longestMatch(matches)
	}
	if matches := inlineCodeRe.FindAllStringSubmatch(output, -1); len(matches) > 0 {
		return longestMatch(matches)
	}
	return ScrubOutput(output)
}

func longestMatch(matches [][]string) string {
	best := ""
	for _, m := range matches {
		if len(m) > 1 && len(m[1]) > len(best) {
			best = m[1]
		}
	}
	return best
}

func matchesBanner(line string) bool {
	for _, p := range bannerPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
