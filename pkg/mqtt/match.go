package mqtt

import "strings"

const sharePrefix = "$share/"

// topicsMatch reports whether topic matches filter, honouring + and #.
func topicsMatch(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if !strings.ContainsAny(filter, "+#") {
		return false
	}

	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, part := range fp {
		if part == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if part != "+" && part != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}

// topicFilter strips a $share/<group>/ prefix so the filter can be matched
// against delivered topics.
func topicFilter(filter string) string {
	if !strings.HasPrefix(filter, sharePrefix) {
		return filter
	}
	parts := strings.SplitN(filter, "/", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return filter
}
