package crisis

import "testing"

func TestRespondCritical(t *testing.T) {
	r := NewResponder()
	resp := r.Respond(Analysis{CrisisLevel: LevelCritical}, "us")
	if resp.Status != "CRITICAL_CRISIS" || resp.Priority != "immediate" {
		t.Fatalf("unexpected template: %+v", resp)
	}
	if !resp.FollowUpRequired {
		t.Fatalf("critical requires follow-up")
	}
	if !resp.Escalate() {
		t.Fatalf("immediate priority must escalate")
	}
	if resp.Helplines == nil || resp.Helplines.Primary.Phone != "988" {
		t.Fatalf("expected US lifeline as primary, got %+v", resp.Helplines)
	}
	if len(resp.Helplines.Additional) != 3 {
		t.Fatalf("expected the fixed additional set, got %d", len(resp.Helplines.Additional))
	}
}

func TestRespondFollowUpMatrix(t *testing.T) {
	r := NewResponder()
	cases := []struct {
		level    Level
		followUp bool
		escalate bool
	}{
		{LevelCritical, true, true},
		{LevelHigh, true, true},
		{LevelModerate, false, false},
		{LevelNone, false, false},
	}
	for _, tc := range cases {
		resp := r.Respond(Analysis{CrisisLevel: tc.level}, "uk")
		if resp.FollowUpRequired != tc.followUp {
			t.Fatalf("level %s: follow_up=%v, want %v", tc.level, resp.FollowUpRequired, tc.followUp)
		}
		if resp.Escalate() != tc.escalate {
			t.Fatalf("level %s: escalate=%v, want %v", tc.level, resp.Escalate(), tc.escalate)
		}
	}
}

func TestRespondUnknownLocationFallsBack(t *testing.T) {
	r := NewResponder()
	resp := r.Respond(Analysis{CrisisLevel: LevelHigh}, "atlantis")
	if resp.Helplines.Primary.Name != "Find A Helpline" {
		t.Fatalf("expected international fallback, got %+v", resp.Helplines.Primary)
	}
}

func TestRespondLocationCaseInsensitive(t *testing.T) {
	r := NewResponder()
	resp := r.Respond(Analysis{CrisisLevel: LevelModerate}, "India")
	if resp.Helplines.Primary.Name != "AASRA" {
		t.Fatalf("expected AASRA for India, got %+v", resp.Helplines.Primary)
	}
}

func TestRespondNoCrisisHasNoResources(t *testing.T) {
	r := NewResponder()
	resp := r.Respond(Analysis{CrisisLevel: LevelNone}, "us")
	if resp.Helplines != nil || resp.Message != "" || len(resp.ImmediateSteps) != 0 {
		t.Fatalf("no-crisis response must be empty: %+v", resp)
	}
}
