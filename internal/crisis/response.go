package crisis

import "strings"

// Helpline is one entry of the static crisis resource directory.
type Helpline struct {
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Helplines bundles the localized primary entry with a fixed set of well-known
// lines so a reachable number is always present.
type Helplines struct {
	Primary       Helpline   `json:"primary"`
	International Helpline   `json:"international"`
	Additional    []Helpline `json:"additional"`
}

// Response is the user-facing crisis response for one analysis.
type Response struct {
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	Message          string     `json:"message,omitempty"`
	ActionRequired   string     `json:"action_required"`
	Helplines        *Helplines `json:"helplines,omitempty"`
	ImmediateSteps   []string   `json:"immediate_steps,omitempty"`
	FollowUpRequired bool       `json:"follow_up_required"`
}

// Escalate reports whether the response warrants emergency notifications.
func (r Response) Escalate() bool {
	return r.Priority == "immediate" || r.Priority == "urgent"
}

var helplineDirectory = map[string]Helpline{
	"international": {
		Name:        "Find A Helpline",
		URL:         "https://findahelpline.com",
		Description: "International crisis helpline directory",
	},
	"us": {
		Name:        "988 Suicide & Crisis Lifeline",
		Phone:       "988",
		URL:         "https://988lifeline.org",
		Description: "24/7 crisis support in the United States",
	},
	"uk": {
		Name:        "Samaritans",
		Phone:       "116 123",
		URL:         "https://www.samaritans.org",
		Description: "24/7 crisis support in the United Kingdom",
	},
	"india": {
		Name:        "AASRA",
		Phone:       "91-22-27546669",
		URL:         "http://www.aasra.info",
		Description: "24/7 crisis support in India",
	},
}

// Responder maps a crisis level to the fixed response template plus localized
// helplines.
type Responder struct{}

// NewResponder constructs the responder.
func NewResponder() *Responder {
	return &Responder{}
}

// Respond builds the crisis response for the analysis. Unknown locations fall
// back to the international directory entry.
func (r *Responder) Respond(analysis Analysis, location string) Response {
	switch analysis.CrisisLevel {
	case LevelCritical:
		return Response{
			Status:         "CRITICAL_CRISIS",
			Priority:       "immediate",
			Message:        "I'm very concerned about you. You're not alone, and your life has value. Please reach out for immediate help.",
			ActionRequired: "immediate_intervention",
			Helplines:      lookupHelplines(location),
			ImmediateSteps: []string{
				"Call emergency services (911, 999, 112) if in immediate danger",
				"Contact a crisis helpline immediately",
				"Reach out to a trusted friend, family member, or mental health professional",
				"Go to your nearest emergency room if you feel unsafe",
			},
			FollowUpRequired: true,
		}
	case LevelHigh:
		return Response{
			Status:         "HIGH_CRISIS",
			Priority:       "urgent",
			Message:        "I'm concerned about how you're feeling. Please know that you're not alone and help is available.",
			ActionRequired: "professional_support",
			Helplines:      lookupHelplines(location),
			ImmediateSteps: []string{
				"Consider calling a crisis helpline to talk to someone",
				"Reach out to a trusted person in your life",
				"Contact your mental health provider if you have one",
				"Consider visiting a mental health professional",
			},
			FollowUpRequired: true,
		}
	case LevelModerate:
		return Response{
			Status:         "MODERATE_CONCERN",
			Priority:       "elevated",
			Message:        "I notice you might be going through a difficult time. It's important to take care of yourself.",
			ActionRequired: "self_care_and_support",
			Helplines:      lookupHelplines(location),
			ImmediateSteps: []string{
				"Consider talking to someone you trust",
				"Practice self-care activities",
				"If feelings persist, consider professional support",
				"Remember that difficult feelings are temporary",
			},
			FollowUpRequired: false,
		}
	default:
		return Response{
			Status:         "NO_CRISIS",
			Priority:       "normal",
			ActionRequired: "none",
		}
	}
}

func lookupHelplines(location string) *Helplines {
	primary, ok := helplineDirectory[strings.ToLower(location)]
	if !ok {
		primary = helplineDirectory["international"]
	}
	return &Helplines{
		Primary:       primary,
		International: helplineDirectory["international"],
		Additional: []Helpline{
			helplineDirectory["us"],
			helplineDirectory["uk"],
			helplineDirectory["india"],
		},
	}
}
