// Package mention converts between human-typed @Name text and the durable
// storage markup @[kind:id:Name] embedded in comment bodies. The storage
// format is shared with other consumers of the project_comments table, so
// the token grammar must not change: ids may not contain ':' and names may
// not contain ']'. There is no escape sequence for a literal "@[" in
// user-authored text.
package mention

import (
	"regexp"
	"sort"
	"strings"
)

// Mention kinds as they appear inside storage tokens.
const (
	KindUser = "user"
	KindTask = "task"
)

// tokenRe matches a single storage token. Group 1 is the kind, group 2 the
// id, group 3 the display name.
var tokenRe = regexp.MustCompile(`@\[(task|user):([^:]+):([^\]]+)\]`)

var userTokenRe = regexp.MustCompile(`@\[user:([^:]+):([^\]]+)\]`)

// Target identifies what a friendly display name resolves to when text is
// converted for storage.
type Target struct {
	ID   string
	Kind string // KindUser or KindTask
}

// Query is the result of DetectQuery: the partial name typed after an '@'
// anchor and the rune offset of that '@' within the text.
type Query struct {
	Text   string
	Anchor int
}

// DetectQuery scans backward from cursor (a rune offset) for the nearest '@'
// that is at the start of the text or immediately preceded by a space, tab
// or newline, with no newline between the '@' and the cursor. It returns the
// partial name typed since that '@' and ok=false when no such anchor exists,
// e.g. when the '@' sits inside a word like an email address.
func DetectQuery(text string, cursor int) (Query, bool) {
	runes := []rune(text)
	if cursor < 0 || cursor > len(runes) {
		return Query{}, false
	}
	for i := cursor - 1; i >= 0; i-- {
		switch runes[i] {
		case '\n':
			// A newline breaks the mention context entirely.
			return Query{}, false
		case '@':
			if i > 0 {
				prev := runes[i-1]
				if prev != ' ' && prev != '\t' && prev != '\n' {
					return Query{}, false
				}
			}
			return Query{Text: string(runes[i+1 : cursor]), Anchor: i}, true
		}
	}
	return Query{}, false
}

// ConvertForStorage replaces every literal occurrence of "@Name" in text
// with the durable form "@[kind:id:Name]" for each name present in targets.
// Names are processed longest-first so a name that is a prefix of another
// name is never partially matched.
func ConvertForStorage(text string, targets map[string]Target) string {
	if len(targets) == 0 {
		return text
	}
	names := make([]string, 0, len(targets))
	for name := range targets {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(a, b int) bool {
		if len(names[a]) != len(names[b]) {
			return len(names[a]) > len(names[b])
		}
		return names[a] < names[b]
	})
	for _, name := range names {
		t := targets[name]
		kind := t.Kind
		if kind == "" {
			kind = KindUser
		}
		token := "@[" + kind + ":" + t.ID + ":" + name + "]"
		text = strings.ReplaceAll(text, "@"+name, token)
	}
	return text
}

// ExtractUserIDs returns the ids of all @[user:...] tokens in stored text,
// deduplicated and in order of first appearance. Task tokens are ignored.
func ExtractUserIDs(stored string) []string {
	matches := userTokenRe.FindAllStringSubmatch(stored, -1)
	ids := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// CleanMarkup replaces every user and task token with plain "@Name" for
// surfaces that cannot render rich inline widgets, such as notification text.
func CleanMarkup(stored string) string {
	return tokenRe.ReplaceAllString(stored, "@$3")
}

// SegmentKind discriminates Segment values.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentUser
	SegmentTask
)

// Segment is one span of stored comment text: either plain text or a
// user/task mention. Render sites walk the segment list once instead of
// re-matching the token grammar ad hoc.
type Segment struct {
	Kind SegmentKind
	Text string // plain text content; empty for mention segments
	ID   string // mention id; empty for text segments
	Name string // mention display name; empty for text segments
}

// Segments tokenizes stored text into a flat list of segments in document
// order. Text between (and around) tokens is preserved verbatim.
func Segments(stored string) []Segment {
	idx := tokenRe.FindAllStringSubmatchIndex(stored, -1)
	if len(idx) == 0 {
		if stored == "" {
			return nil
		}
		return []Segment{{Kind: SegmentText, Text: stored}}
	}
	segs := make([]Segment, 0, len(idx)*2+1)
	pos := 0
	for _, m := range idx {
		if m[0] > pos {
			segs = append(segs, Segment{Kind: SegmentText, Text: stored[pos:m[0]]})
		}
		kind := SegmentUser
		if stored[m[2]:m[3]] == KindTask {
			kind = SegmentTask
		}
		segs = append(segs, Segment{
			Kind: kind,
			ID:   stored[m[4]:m[5]],
			Name: stored[m[6]:m[7]],
		})
		pos = m[1]
	}
	if pos < len(stored) {
		segs = append(segs, Segment{Kind: SegmentText, Text: stored[pos:]})
	}
	return segs
}
