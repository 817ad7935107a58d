package topic

import (
	"fmt"
	"strings"
)

// Topic segments understood by the hub. Feed producers and the hub must agree
// on them.
const (
	// SuffixPosition carries normalized live position reports (producer -> hub).
	// Structure: {root}/position/{vesselID}
	SuffixPosition = "position"

	// SuffixSummary carries the retained fleet summary (hub -> consumers).
	// Structure: {root}/fleet/summary
	SuffixSummary = "fleet/summary"

	// SuffixHubStatus carries the retained hub online flag, also used as the will.
	// Structure: {root}/hub/status/{hubID}
	SuffixHubStatus = "hub/status"
)

// TopicBuilder constructs topic strings under a common root.
type TopicBuilder struct {
	root string
}

func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.TrimSuffix(root, "/")}
}

// Position returns the topic a producer publishes a vessel report to.
func (b *TopicBuilder) Position(vesselID string) string {
	return b.build(SuffixPosition, vesselID)
}

// PositionWildcard returns {root}/position/+.
func (b *TopicBuilder) PositionWildcard() string {
	return b.build(SuffixPosition, Wildcard)
}

func (b *TopicBuilder) Summary() string {
	return b.root + "/" + SuffixSummary
}

func (b *TopicBuilder) HubStatus(hubID string) string {
	return b.build(SuffixHubStatus, hubID)
}

// Shared wraps filter in a shared subscription for group. An empty group
// returns filter unchanged.
func Shared(group, filter string) string {
	if group == "" {
		return filter
	}
	return fmt.Sprintf("%s/%s/%s", SharePrefix, group, filter)
}

// VesselID extracts the trailing vessel identifier from a position topic.
func (b *TopicBuilder) VesselID(topic string) (string, bool) {
	prefix := b.root + "/" + SuffixPosition + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
