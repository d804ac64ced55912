package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeGenerator struct {
	name string
	out  string
	err  error
}

func (f *fakeGenerator) Name() string { return f.name }
func (f *fakeGenerator) Generate(ctx context.Context, prompt, instructions string) (string, error) {
	return f.out, f.err
}

func TestCanonicalKey(t *testing.T) {
	testcases := []struct {
		name   string
		domain string
		task   string
		object string
		want   string
	}{
		{
			name:   "simple",
			domain: "sports",
			task:   "explanation",
			object: "sachin_tendulkar",
			want:   "sports|explanation|sachin_tendulkar",
		},
		{
			name:   "case-and-spaces",
			domain: "Entertainment",
			task:   "Ranking Retrieval",
			object: "Top Movies",
			want:   "entertainment|ranking_retrieval|top_movies",
		},
		{
			name:   "surrounding-whitespace",
			domain: " programming ",
			task:   "code_generation",
			object: "bubblesort",
			want:   "programming|code_generation|bubblesort",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanonicalKey(tc.domain, tc.task, tc.object))
		})
	}
}

func TestDecodeJSON_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"query_type\":\"follow_up\",\"route_to\":\"judge\",\"reasoning\":\"same topic\"}\n```"
	var d Decision
	if err := decodeJSON(raw, &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Route != RouteFollowUp {
		t.Fatalf("got route %q", d.Route)
	}
}

func TestDecodeJSON_MalformedRetainsRaw(t *testing.T) {
	var d Decision
	err := decodeJSON("sure, I'd say follow_up!", &d)
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
	if malformed.Raw == "" {
		t.Fatal("raw text should be retained for logging")
	}
}

func TestClassifier_FollowUp(t *testing.T) {
	gen := &fakeGenerator{name: "fake", out: `{"query_type":"follow_up","route_to":"judge","reasoning":"refines previous answer"}`}
	c := NewClassifier(gen, nil)

	d := c.Classify(context.Background(), "give it in python", "USER: bubblesort\nAI: here\n", "programming|code_generation|bubblesort")
	if d.Route != RouteFollowUp || d.Target != TargetJudge {
		t.Fatalf("unexpected decision %#v", d)
	}
}

func TestClassifier_MalformedDefaultsToNewQuestion(t *testing.T) {
	gen := &fakeGenerator{name: "fake", out: "not json at all"}
	c := NewClassifier(gen, nil)

	d := c.Classify(context.Background(), "who is virat kohli", "", "")
	if d.Route != RouteNewQuestion || d.Target != TargetGenerators {
		t.Fatalf("parse failure must fail safe, got %#v", d)
	}
}

func TestClassifier_BackendErrorDefaultsToNewQuestion(t *testing.T) {
	gen := &fakeGenerator{name: "fake", err: errors.New("timeout")}
	c := NewClassifier(gen, nil)

	d := c.Classify(context.Background(), "anything", "", "")
	if d.Route != RouteNewQuestion {
		t.Fatalf("backend failure must fail safe, got %#v", d)
	}
}

func TestExtractor_SynthesizesCanonicalKey(t *testing.T) {
	gen := &fakeGenerator{name: "primary", out: `{"domain":"sports","task":"explanation","object":"sachin_tendulkar"}`}
	e := NewExtractor(gen, nil, nil)

	sig := e.Extract(context.Background(), "who is sachin tendulkar")
	if sig.Key != "sports|explanation|sachin_tendulkar" {
		t.Fatalf("got key %q", sig.Key)
	}
	if !sig.Known() {
		t.Fatal("signature should be meaningful")
	}
}

func TestExtractor_FailsOverToSecondary(t *testing.T) {
	primary := &fakeGenerator{name: "primary", err: errors.New("credential rejected")}
	secondary := &fakeGenerator{name: "secondary", out: `{"domain":"programming","task":"code_generation","object":"bubblesort"}`}
	e := NewExtractor(primary, secondary, nil)

	sig := e.Extract(context.Background(), "write bubblesort")
	if sig.Domain != "programming" {
		t.Fatalf("fallback not used, got %#v", sig)
	}
}

func TestExtractor_MissingDomainDefaultsToGeneral(t *testing.T) {
	gen := &fakeGenerator{name: "primary", out: `{"task":"explanation","object":"something"}`}
	e := NewExtractor(gen, nil, nil)

	sig := e.Extract(context.Background(), "explain something")
	if sig.Domain != DefaultDomain {
		t.Fatalf("got domain %q", sig.Domain)
	}
	if sig.Key != "general|explanation|something" {
		t.Fatalf("got key %q", sig.Key)
	}
}

func TestExtractor_TotalFailureReturnsUnknownSentinel(t *testing.T) {
	primary := &fakeGenerator{name: "primary", err: errors.New("down")}
	secondary := &fakeGenerator{name: "secondary", out: "I cannot do JSON today"}
	e := NewExtractor(primary, secondary, nil)

	sig := e.Extract(context.Background(), "???")
	if sig.Key != UnknownKey || sig.Domain != DefaultDomain {
		t.Fatalf("expected unknown sentinel, got %#v", sig)
	}
	if sig.Known() {
		t.Fatal("unknown signature must not register as meaningful")
	}
}

func TestMatcher_AcceptsOnlyVerbatimCandidates(t *testing.T) {
	candidates := []string{"programming|code_generation|parity_check", "sports|explanation|sachin_tendulkar"}

	gen := &fakeGenerator{name: "judge", out: `"programming|code_generation|parity_check"`}
	m := NewMatcher(gen, nil)
	match, ok := m.FindEquivalent(context.Background(), "programming|code_generation|check_odd_even", candidates)
	if !ok || match != candidates[0] {
		t.Fatalf("expected verbatim match, got %q ok=%v", match, ok)
	}

	// A plausible-but-nonexistent key must be discarded.
	gen.out = "programming|code_generation|odd_even_checker"
	if _, ok := m.FindEquivalent(context.Background(), "x", candidates); ok {
		t.Fatal("hallucinated candidate must be rejected")
	}
}

func TestMatcher_NoneSentinelAndEmptyCandidates(t *testing.T) {
	gen := &fakeGenerator{name: "judge", out: "None"}
	m := NewMatcher(gen, nil)

	if _, ok := m.FindEquivalent(context.Background(), "a|b|c", []string{"x|y|z"}); ok {
		t.Fatal("none sentinel should mean no match")
	}
	if _, ok := m.FindEquivalent(context.Background(), "a|b|c", nil); ok {
		t.Fatal("no candidates should short-circuit to no match")
	}
}
