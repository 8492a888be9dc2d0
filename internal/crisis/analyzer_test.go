package crisis

import (
	"reflect"
	"testing"
)

func TestAnalyzeHighSeverityKeyword(t *testing.T) {
	a := NewAnalyzer()
	res := a.Analyze("I want to kill myself", -0.9)
	if !res.IsCrisis {
		t.Fatalf("expected crisis")
	}
	if res.CrisisLevel != LevelCritical {
		t.Fatalf("expected critical, got %s", res.CrisisLevel)
	}
	if res.SeverityAssessment != SeverityHigh {
		t.Fatalf("expected high severity, got %s", res.SeverityAssessment)
	}
	if !res.SentimentCrisis {
		t.Fatalf("expected sentiment crisis at -0.9")
	}
}

func TestAnalyzeMediumSeverityKeywords(t *testing.T) {
	a := NewAnalyzer()
	res := a.Analyze("I feel hopeless and worthless, I can't go on", -0.7)
	if !res.IsCrisis {
		t.Fatalf("expected crisis")
	}
	if res.CrisisLevel != LevelHigh {
		t.Fatalf("expected high, got %s", res.CrisisLevel)
	}
	if res.SentimentCrisis {
		t.Fatalf("-0.7 should not trip the sentiment threshold")
	}
	want := []string{"hopeless", "worthless", "can't go on"}
	if !reflect.DeepEqual(res.FoundKeywords, want) {
		t.Fatalf("keywords in table order expected %v, got %v", want, res.FoundKeywords)
	}
}

func TestAnalyzePositiveText(t *testing.T) {
	a := NewAnalyzer()
	res := a.Analyze("I'm having a great day", 0.8)
	if res.IsCrisis {
		t.Fatalf("did not expect crisis")
	}
	if res.CrisisLevel != LevelNone {
		t.Fatalf("expected none, got %s", res.CrisisLevel)
	}
	if len(res.FoundKeywords) != 0 {
		t.Fatalf("unexpected keywords: %v", res.FoundKeywords)
	}
}

func TestAnalyzeSentimentOnlyCrisis(t *testing.T) {
	a := NewAnalyzer()
	// No keywords at all; the mood threshold alone must drive the outcome.
	res := a.Analyze("fine.", -0.85)
	if !res.SentimentCrisis {
		t.Fatalf("expected sentiment crisis for mood < -0.8")
	}
	if !res.IsCrisis {
		t.Fatalf("sentiment crisis alone must flag a crisis")
	}
	if res.CrisisLevel != LevelHigh {
		t.Fatalf("expected high from sentiment alone, got %s", res.CrisisLevel)
	}
}

func TestAnalyzeSentimentPlusKeywordIsCritical(t *testing.T) {
	a := NewAnalyzer()
	res := a.Analyze("everything is pointless", -0.9)
	if res.CrisisLevel != LevelCritical {
		t.Fatalf("sentiment crisis with a keyword should be critical, got %s", res.CrisisLevel)
	}
}

func TestAnalyzeEmptyTextUsesMoodThresholds(t *testing.T) {
	a := NewAnalyzer()

	res := a.Analyze("", -0.7)
	if res.CrisisLevel != LevelModerate {
		t.Fatalf("mood -0.7 with no text should be moderate, got %s", res.CrisisLevel)
	}
	if res.IsCrisis {
		t.Fatalf("moderate mood dip without keywords is not a crisis")
	}

	res = a.Analyze("", -0.2)
	if res.CrisisLevel != LevelNone {
		t.Fatalf("expected none, got %s", res.CrisisLevel)
	}
}

func TestAnalyzeTwoLowKeywordsEscalate(t *testing.T) {
	a := NewAnalyzer()
	// Two low-tier keywords and no sentiment crisis still reach "high".
	res := a.Analyze("I feel numb and trapped", -0.1)
	if len(res.FoundKeywords) != 2 {
		t.Fatalf("expected 2 keywords, got %v", res.FoundKeywords)
	}
	if res.SeverityAssessment != SeverityLow {
		t.Fatalf("expected low severity, got %s", res.SeverityAssessment)
	}
	if res.CrisisLevel != LevelHigh {
		t.Fatalf("expected high via keyword count, got %s", res.CrisisLevel)
	}
}

func TestAnalyzeHighNeverDowngraded(t *testing.T) {
	a := NewAnalyzer()
	// A high-tier match followed by medium-tier matches must stay high.
	res := a.Analyze("I have a suicide plan and I feel hopeless", 0)
	if res.SeverityAssessment != SeverityHigh {
		t.Fatalf("high severity must not be downgraded, got %s", res.SeverityAssessment)
	}
	if res.CrisisLevel != LevelCritical {
		t.Fatalf("expected critical, got %s", res.CrisisLevel)
	}
}

func TestAnalyzeSubstringContainment(t *testing.T) {
	a := NewAnalyzer()
	// "suicidal" contains "suicide"? It does not; but "suicidal" is its own
	// entry and "end it" is contained in "end it all".
	res := a.Analyze("I've been feeling suicidal", 0)
	found := map[string]bool{}
	for _, k := range res.FoundKeywords {
		found[k] = true
	}
	if !found["suicidal"] {
		t.Fatalf("expected substring match for suicidal, got %v", res.FoundKeywords)
	}
}
