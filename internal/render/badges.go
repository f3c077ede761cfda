package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

var (
	repoHostPattern = regexp.MustCompile(`^https?://(github\.com|gitlab\.com|codeberg\.org)/([^/]+)/([^/]+?)(\.git)?/?$`)
	badgePattern    = regexp.MustCompile(`(https?://[^()>"' ]+)([()>"' ]*)(<(?:div|span) class="shields">.*?</(?:div|span)>)`)
)

// ShieldsFor returns the stars and last-commit badges for a GitHub, GitLab
// or Codeberg repository URL, wrapped in a div when block is set and in a
// span otherwise. Other URLs yield "".
func ShieldsFor(repoURL string, block bool) string {
	m := repoHostPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return ""
	}

	service, extra := "", ""
	switch m[1] {
	case "github.com":
		service = "github"
	case "gitlab.com":
		service = "gitlab"
	default:
		service = "gitea"
		extra = "&gitea_url=https://" + m[1]
	}
	user, repo := m[2], m[3]

	var b strings.Builder
	fmt.Fprintf(&b, `<img src="https://img.shields.io/%s/stars/%s/%s?label=&style=flat-square%s" alt="Stars" title="Stars">`, service, user, repo, extra)
	fmt.Fprintf(&b, `<img src="https://img.shields.io/%s/last-commit/%s/%s?label=&style=flat-square%s" alt="Last commit" title="Last commit">`, service, user, repo, extra)

	if block {
		return `<div class="shields">` + b.String() + `</div>`
	}
	return `<span class="shields">` + b.String() + `</span>`
}

// ApplyBadges regenerates every shields container that directly follows a
// repository URL on the same line. Containers after unsupported URLs are
// left untouched.
func ApplyBadges(source []byte, block bool) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	changed := false
	for i, line := range lines {
		text := string(line)
		matches := badgePattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			url, sep, old := m[1], m[2], m[3]
			shields := ShieldsFor(url, block)
			if shields == "" {
				continue
			}
			text = strings.ReplaceAll(text, url+sep+old, url+sep+shields)
		}
		if text != string(line) {
			lines[i] = []byte(text)
			changed = true
		}
	}
	if !changed {
		return source
	}
	return bytes.Join(lines, nil)
}
