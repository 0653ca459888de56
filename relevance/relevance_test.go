package relevance

import "testing"

func TestScoreDecayScenario(t *testing.T) {
	postTs := int64(1_000_000)
	in := Input{
		AuthorVerified: true,
		UpvoteCount:    10,
		CommentCount:   0,
	}
	in.PostTimestampMs = postTs

	atCreation := Score(in, postTs)
	if got, want := atCreation, 220.0; diff(got, want) > 1e-6 {
		t.Fatalf("score at creation = %v, want %v", got, want)
	}

	sevenDaysLater := postTs + 7*86_400_000
	atWeek := Score(in, sevenDaysLater)
	if got, want := atWeek, 110.0; diff(got, want) > 1e-6 {
		t.Fatalf("score after 7 days = %v, want %v", got, want)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	in := Input{PostTimestampMs: 0}
	if got := Score(in, 1_000_000_000_000); got < 0 {
		t.Fatalf("expected non-negative score, got %v", got)
	}
}

func TestScoreStrictlyDecreasingOverTime(t *testing.T) {
	in := Input{AuthorVerified: true, UpvoteCount: 5, CommentCount: 2, PostTimestampMs: 1000}
	a := Score(in, 2000)
	b := Score(in, 2_000_000)
	if !(a > b) {
		t.Fatalf("expected score to strictly decrease as now increases: a=%v b=%v", a, b)
	}
}

func TestScoreModerationHalvesScore(t *testing.T) {
	in := Input{AuthorVerified: false, UpvoteCount: 0, CommentCount: 0, PostTimestampMs: 1000}
	unmoderated := Score(in, 1000)
	in.EffectiveModerationIsModerate = true
	moderated := Score(in, 1000)
	if diff(moderated, unmoderated/2) > 1e-6 {
		t.Fatalf("expected moderated score to be half: moderated=%v unmoderated=%v", moderated, unmoderated)
	}
}

func TestFilterMatch(t *testing.T) {
	f, err := NewFilter(`moderated == false and cell_id == "c1"`)
	if err != nil {
		t.Fatalf("compile filter: %v", err)
	}
	ok, err := f.Match(PostView{CellID: "c1", Moderated: false})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !ok {
		t.Fatal("expected match")
	}
	ok, err = f.Match(PostView{CellID: "c2", Moderated: false})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if ok {
		t.Fatal("expected no match for different cell")
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
