package linear

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/taskdrop/taskdrop/internal/types"
)

// Linear priority values: 0=no priority, 1=urgent, 2=high, 3=medium, 4=low.
const (
	PriorityNone   = 0
	PriorityUrgent = 1
	PriorityHigh   = 2
	PriorityMedium = 3
	PriorityLow    = 4
)

// PriorityToLinear maps a semantic priority to Linear's integer scale.
// The mapping is total: unrecognized or empty values map to medium.
func PriorityToLinear(p types.Priority) int {
	switch strings.ToLower(string(p)) {
	case string(types.PriorityUrgent):
		return PriorityUrgent
	case string(types.PriorityHigh):
		return PriorityHigh
	case string(types.PriorityMedium):
		return PriorityMedium
	case string(types.PriorityLow):
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// identifierPattern matches Linear issue keys such as "ENG-123".
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*-\d+$`)

// linearIssuePath splits a linear.app issue URL into its workspace and
// identifier. ok is false for anything that is not a Linear issue URL.
func linearIssuePath(ref string) (workspace, identifier string, ok bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Host != "linear.app" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[1] != "issue" {
		return "", "", false
	}
	if !identifierPattern.MatchString(parts[2]) {
		return "", "", false
	}
	return parts[0], parts[2], true
}

// ExtractLinearIdentifier returns the issue key ("PROJ-123") from a Linear
// issue URL, or "" if ref is not one.
func ExtractLinearIdentifier(ref string) string {
	_, id, _ := linearIssuePath(ref)
	return id
}

// CanonicalizeLinearExternalRef strips the title slug from a Linear issue URL.
func CanonicalizeLinearExternalRef(ref string) (string, bool) {
	ws, id, ok := linearIssuePath(ref)
	if !ok {
		return "", false
	}
	return "https://linear.app/" + ws + "/issue/" + id, true
}
