package resolver

import "regexp"

var applePodcastIDRe = regexp.MustCompile(`/id(\d+)`)

// applePodcastID extracts the show-level id from an Apple episode URL, e.g.
// "/podcast/some-show/id1789644662?i=100" → "1789644662".
func applePodcastID(url string) string {
	if m := applePodcastIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}
