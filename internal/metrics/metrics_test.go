package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	first := waitlistSubmissionsTotal
	Init()
	if waitlistSubmissionsTotal != first || first == nil {
		t.Fatal("Init() must initialize collectors exactly once")
	}
}

func TestObservers(t *testing.T) {
	Init()

	before := testutil.ToFloat64(waitlistSubmissionsTotal.WithLabelValues("waitlistForm", "redirecting"))
	ObserveSubmission("waitlistForm", "redirecting")
	if got := testutil.ToFloat64(waitlistSubmissionsTotal.WithLabelValues("waitlistForm", "redirecting")); got != before+1 {
		t.Errorf("expected submissions to increase by 1, got %f -> %f", before, got)
	}

	before = testutil.ToFloat64(botCheckFailuresTotal.WithLabelValues("footerWaitlistForm"))
	ObserveBotCheckFailure("footerWaitlistForm")
	if got := testutil.ToFloat64(botCheckFailuresTotal.WithLabelValues("footerWaitlistForm")); got != before+1 {
		t.Errorf("expected bot-check failures to increase by 1, got %f", got)
	}

	okBefore := testutil.ToFloat64(fragmentLoadsTotal.WithLabelValues("/thank-you", "ok"))
	errBefore := testutil.ToFloat64(fragmentLoadsTotal.WithLabelValues("/thank-you", "error"))
	ObserveFragmentLoad("/thank-you", true)
	ObserveFragmentLoad("/thank-you", false)
	ObserveFragmentLoad("/thank-you", false)
	if got := testutil.ToFloat64(fragmentLoadsTotal.WithLabelValues("/thank-you", "ok")); got != okBefore+1 {
		t.Errorf("expected one ok load, got %f", got-okBefore)
	}
	if got := testutil.ToFloat64(fragmentLoadsTotal.WithLabelValues("/thank-you", "error")); got != errBefore+2 {
		t.Errorf("expected two failed loads, got %f", got-errBefore)
	}

	before = testutil.ToFloat64(analyticsDroppedTotal)
	IncAnalyticsDropped()
	if got := testutil.ToFloat64(analyticsDroppedTotal); got != before+1 {
		t.Errorf("expected dropped counter to increase, got %f", got)
	}

	before = testutil.ToFloat64(rateLimitedTotal.WithLabelValues("/waitlist/{formID}"))
	ObserveRateLimited("/waitlist/{formID}")
	if got := testutil.ToFloat64(rateLimitedTotal.WithLabelValues("/waitlist/{formID}")); got != before+1 {
		t.Errorf("expected rate limited counter to increase, got %f", got)
	}
}
