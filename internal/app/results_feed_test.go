package app

import (
	"testing"

	"brainbuzz/internal/domain"
)

func TestFeedPrimeDeliversSnapshot(t *testing.T) {
	feed := NewFeed("quiz-1")
	ch, cancel := feed.subscribe()
	defer cancel()

	feed.prime(ch, domain.Statistics{SubmittedCount: 2})
	if got := <-ch; got.SubmittedCount != 2 {
		t.Fatalf("expected snapshot with 2 submissions, got %+v", got)
	}
}

func TestFeedPrimeDoesNotRegressPastPublish(t *testing.T) {
	feed := NewFeed("quiz-1")
	ch, cancel := feed.subscribe()
	defer cancel()

	// a submission published while the snapshot was being read
	feed.publish(domain.Statistics{SubmittedCount: 3})
	feed.prime(ch, domain.Statistics{SubmittedCount: 2})

	first, second := <-ch, <-ch
	if first.SubmittedCount != 3 || second.SubmittedCount != 3 {
		t.Fatalf("expected subscriber to end on the newer snapshot, got %+v then %+v", first, second)
	}
}

func TestFeedPublishDropsOlderSnapshots(t *testing.T) {
	feed := NewFeed("quiz-1")
	ch, cancel := feed.subscribe()
	defer cancel()

	feed.publish(domain.Statistics{SubmittedCount: 5})
	feed.publish(domain.Statistics{SubmittedCount: 4})
	feed.publish(domain.Statistics{SubmittedCount: 5})

	if got := <-ch; got.SubmittedCount != 5 {
		t.Fatalf("unexpected first update %+v", got)
	}
	if got := <-ch; got.SubmittedCount != 5 {
		t.Fatalf("expected stale update to be dropped, got %+v", got)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra update %+v", extra)
	default:
	}
}

func TestFeedPrimeAfterCancelIsNoop(t *testing.T) {
	feed := NewFeed("quiz-1")
	ch, cancel := feed.subscribe()
	cancel()

	feed.prime(ch, domain.Statistics{SubmittedCount: 1})
	if _, open := <-ch; open {
		t.Fatalf("expected closed channel")
	}
	if !feed.IsEmpty() {
		t.Fatalf("expected no subscribers")
	}
}
