package replica

import (
	"testing"

	"github.com/opchan/core/message"
	"github.com/opchan/core/replica/storage/memstore"
)

type alwaysVerifier struct{}

func (alwaysVerifier) VerifyWithReason(e *message.Envelope) (bool, []string) { return true, nil }

func rawEnvelope(t *testing.T, e *message.Envelope) []byte {
	t.Helper()
	raw, err := message.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func samplePost(id, author string, ts int64) *message.Envelope {
	return &message.Envelope{
		Kind:        message.KindPost,
		ID:          id,
		TimestampMs: ts,
		Author:      author,
		Signature:   []byte("sig"),
		DevicePubKey: []byte("0123456789012345678901234567890"),
		Post:        &message.PostPayload{CellID: "c1", Title: "Hi", Body: "World"},
	}
}

func sampleVote(target, author string, value int, ts int64) *message.Envelope {
	return &message.Envelope{
		Kind: message.KindVote, ID: "v-" + author + "-" + target, TimestampMs: ts, Author: author,
		Signature: []byte("sig"), DevicePubKey: []byte("0123456789012345678901234567890"),
		Vote: &message.VotePayload{TargetID: target, Value: value},
	}
}

// Valid UUIDv4 authors used throughout: variant/version nibbles fixed,
// remaining digits chosen to keep each constant visually distinct.
const (
	authorU     = "11111111-1111-4111-8111-111111111111"
	authorU1    = "22222222-2222-4222-8222-222222222222"
	authorU2    = "33333333-3333-4333-8333-333333333333"
	authorOwner = "44444444-4444-4444-8444-444444444444"
)

func newReplica(t *testing.T) *Replica {
	t.Helper()
	r, err := Open(memstore.New())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return r
}

func TestApplyMessageIdempotent(t *testing.T) {
	r := newReplica(t)
	raw := rawEnvelope(t, samplePost("p1", "3f1c1111-2222-4333-8444-a8b2a8b2a8b2", 1000))

	first := r.ApplyMessage(raw, alwaysVerifier{})
	if first.Result != Accepted {
		t.Fatalf("expected accepted, got %v: %+v", first.Result, first.ValidationReport)
	}
	second := r.ApplyMessage(raw, alwaysVerifier{})
	if second.Result != Duplicate {
		t.Fatalf("expected duplicate, got %v", second.Result)
	}
	if r.Post("p1").Body != "World" {
		t.Fatalf("unexpected post body: %v", r.Post("p1").Body)
	}
}

func TestAnonymousPostRoundTrip(t *testing.T) {
	r := newReplica(t)
	raw := rawEnvelope(t, samplePost("p1", "3f1c1111-2222-4333-8444-a8b2a8b2a8b2", 1000))
	out := r.ApplyMessage(raw, alwaysVerifier{})
	if out.Result != Accepted {
		t.Fatalf("expected accepted: %+v", out.ValidationReport)
	}
	if r.Post("p1").Body != "World" {
		t.Fatal("expected replica to store post body World")
	}
}

func TestVoteSupersession(t *testing.T) {
	up := sampleVote("p1", authorU, 1, 2000)
	down := sampleVote("p1", authorU, -1, 3000)

	// forward order
	r1 := newReplica(t)
	r1.ApplyMessage(rawEnvelope(t, up), alwaysVerifier{})
	r1.ApplyMessage(rawEnvelope(t, down), alwaysVerifier{})
	votes1 := r1.VotesOnTarget("p1")
	if len(votes1) != 1 || votes1[0].Value != -1 {
		t.Fatalf("forward order: expected single vote value=-1, got %+v", votes1)
	}

	// reverse order
	r2 := newReplica(t)
	r2.ApplyMessage(rawEnvelope(t, down), alwaysVerifier{})
	r2.ApplyMessage(rawEnvelope(t, up), alwaysVerifier{})
	votes2 := r2.VotesOnTarget("p1")
	if len(votes2) != 1 || votes2[0].Value != -1 {
		t.Fatalf("reverse order: expected single vote value=-1, got %+v", votes2)
	}
}

func TestModerationToggle(t *testing.T) {
	r := newReplica(t)
	moderate := &message.Envelope{
		Kind: message.KindModerate, ID: "m1", TimestampMs: 5000, Author: authorOwner,
		Signature: []byte("sig"), DevicePubKey: []byte("0123456789012345678901234567890"),
		Moderate: &message.ModeratePayload{Action: message.ModerateActionModerate, TargetKind: message.TargetKindPost, TargetID: "p1", CellID: "c1"},
	}
	unmoderate := &message.Envelope{
		Kind: message.KindModerate, ID: "m2", TimestampMs: 6000, Author: authorOwner,
		Signature: []byte("sig"), DevicePubKey: []byte("0123456789012345678901234567890"),
		Moderate: &message.ModeratePayload{Action: message.ModerateActionUnmoderate, TargetKind: message.TargetKindPost, TargetID: "p1", CellID: "c1"},
	}

	r.ApplyMessage(rawEnvelope(t, moderate), alwaysVerifier{})
	r.ApplyMessage(rawEnvelope(t, unmoderate), alwaysVerifier{})

	mod := r.Moderation("c1", string(message.TargetKindPost), "p1")
	if mod == nil || mod.Action != message.ModerateActionUnmoderate {
		t.Fatalf("expected unmoderated effective state, got %+v", mod)
	}

	// Out-of-order re-delivery of the Moderate message is a no-op.
	out := r.ApplyMessage(rawEnvelope(t, moderate), alwaysVerifier{})
	if out.Result != Duplicate {
		t.Fatalf("expected duplicate for re-delivered moderate message, got %v", out.Result)
	}
	mod = r.Moderation("c1", string(message.TargetKindPost), "p1")
	if mod.Action != message.ModerateActionUnmoderate {
		t.Fatal("expected effective state to remain unmoderated")
	}
}

func TestConvergenceUnderPermutation(t *testing.T) {
	msgs := []*message.Envelope{
		samplePost("p1", "3f1c1111-2222-4333-8444-a8b2a8b2a8b2", 1000),
		sampleVote("p1", authorU1, 1, 2000),
		sampleVote("p1", authorU1, -1, 3000),
		sampleVote("p1", authorU2, 1, 2500),
	}

	apply := func(order []int) *Replica {
		r := newReplica(t)
		for _, i := range order {
			r.ApplyMessage(rawEnvelope(t, msgs[i]), alwaysVerifier{})
		}
		return r
	}

	a := apply([]int{0, 1, 2, 3})
	b := apply([]int{3, 2, 1, 0})

	if a.Post("p1").Body != b.Post("p1").Body {
		t.Fatal("posts diverged")
	}
	va, vb := a.VotesOnTarget("p1"), b.VotesOnTarget("p1")
	if len(va) != len(vb) {
		t.Fatalf("vote count diverged: %d vs %d", len(va), len(vb))
	}
}
