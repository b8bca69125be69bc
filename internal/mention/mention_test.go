package mention

import (
	"reflect"
	"testing"
)

func TestDetectQuery(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		cursor int
		want   string
		anchor int
		ok     bool
	}{
		{"after space", "hello @bob", 10, "bob", 6, true},
		{"at start", "@al", 3, "al", 0, true},
		{"empty query", "hi @", 4, "", 3, true},
		{"inside email", "email@x.com", 11, "", 0, false},
		{"newline between", "hi @bo\nb", 8, "", 0, false},
		{"after newline", "line one\n@je", 12, "je", 9, true},
		{"no at", "plain text", 10, "", 0, false},
		{"cursor past end", "hi @b", 9, "", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, ok := DetectQuery(tc.text, tc.cursor)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if q.Text != tc.want {
				t.Errorf("query = %q, want %q", q.Text, tc.want)
			}
			if q.Anchor != tc.anchor {
				t.Errorf("anchor = %d, want %d", q.Anchor, tc.anchor)
			}
		})
	}
}

func TestConvertForStorage(t *testing.T) {
	targets := map[string]Target{
		"Jane Doe": {ID: "42", Kind: KindUser},
	}
	got := ConvertForStorage("hey @Jane Doe can you look?", targets)
	want := "hey @[user:42:Jane Doe] can you look?"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvertForStorageLongestMatchFirst(t *testing.T) {
	// "Al" is a prefix of "Alice"; converting "@Alice" must produce the
	// Alice token, not a mangled hybrid built from the shorter name.
	targets := map[string]Target{
		"Al":    {ID: "1", Kind: KindUser},
		"Alice": {ID: "2", Kind: KindUser},
	}
	got := ConvertForStorage("ping @Alice", targets)
	want := "ping @[user:2:Alice]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvertForStorageTaskKind(t *testing.T) {
	targets := map[string]Target{
		"Design review": {ID: "t9", Kind: KindTask},
	}
	got := ConvertForStorage("see @Design review", targets)
	want := "see @[task:t9:Design review]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	// Converting then cleaning must reproduce the typed text exactly for
	// names without ']' or ':' characters.
	orig := "@Jane Doe please check the totals"
	stored := ConvertForStorage(orig, map[string]Target{"Jane Doe": {ID: "7", Kind: KindUser}})
	if got := CleanMarkup(stored); got != orig {
		t.Errorf("round trip = %q, want %q", got, orig)
	}
}

func TestExtractUserIDs(t *testing.T) {
	stored := "@[user:A:Alice] then @[user:B:Bob] and again @[user:A:Alice], plus @[task:T:Fix]"
	got := ExtractUserIDs(stored)
	want := []string{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractUserIDsEmpty(t *testing.T) {
	if got := ExtractUserIDs("no mentions here"); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestCleanMarkup(t *testing.T) {
	stored := "ask @[user:1:Alice] about @[task:9:Launch plan] today"
	want := "ask @Alice about @Launch plan today"
	if got := CleanMarkup(stored); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSegments(t *testing.T) {
	stored := "hi @[user:1:Alice], see @[task:9:Launch]!"
	got := Segments(stored)
	want := []Segment{
		{Kind: SegmentText, Text: "hi "},
		{Kind: SegmentUser, ID: "1", Name: "Alice"},
		{Kind: SegmentText, Text: ", see "},
		{Kind: SegmentTask, ID: "9", Name: "Launch"},
		{Kind: SegmentText, Text: "!"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestSegmentsPlainOnly(t *testing.T) {
	got := Segments("nothing special")
	if len(got) != 1 || got[0].Kind != SegmentText || got[0].Text != "nothing special" {
		t.Errorf("got %#v", got)
	}
	if Segments("") != nil {
		t.Error("empty input should yield nil")
	}
}
