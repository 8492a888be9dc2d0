// Package activity recommends wellness activities matched to the user's mood
// bucket and crisis level.
package activity

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Activity is one suggested exercise.
type Activity struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Type        string `json:"type"`
	Icon        string `json:"icon"`
}

// Recommendation is a sampled activity set with the bucket it was drawn from.
type Recommendation struct {
	MoodCategory string     `json:"mood_category"`
	Explanation  string     `json:"explanation"`
	Activities   []Activity `json:"activities"`
	MoodScore    float64    `json:"mood_score"`
	CrisisLevel  string     `json:"crisis_level"`
	Timestamp    time.Time  `json:"timestamp"`
}

// DailySuggestion is the random pick-of-the-day wrapper.
type DailySuggestion struct {
	DailyActivity Activity  `json:"daily_activity"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

var crisisGrounding = []Activity{
	{"5-4-3-2-1 Grounding Technique", "Name 5 things you can see, 4 you can touch, 3 you can hear, 2 you can smell, 1 you can taste", "2-3 minutes", "grounding", "🧘"},
	{"Deep Breathing Exercise", "Breathe in for 4 counts, hold for 4, breathe out for 6. Repeat 5 times", "3-5 minutes", "breathing", "🫁"},
	{"Cold Water on Wrists", "Run cold water over your wrists or splash on your face to activate your nervous system", "1-2 minutes", "physical", "💧"},
	{"Call Someone You Trust", "Reach out to a friend, family member, or counselor. You don't have to face this alone", "10-30 minutes", "social", "📞"},
}

var crisisComfort = []Activity{
	{"Wrap Yourself in a Blanket", "Find a soft blanket or comfort item. Physical comfort can help emotional comfort", "As long as needed", "comfort", "🛋️"},
	{"Listen to Calming Music", "Put on gentle, soothing music or nature sounds to help regulate your emotions", "10-20 minutes", "audio", "🎵"},
}

var moderateNegative = []Activity{
	{"Take a 10-Minute Walk", "Step outside or walk around your home. Movement releases endorphins naturally", "10-15 minutes", "exercise", "🚶"},
	{"Gentle Stretching", "Do simple stretches - neck rolls, shoulder shrugs, touch your toes", "5-10 minutes", "exercise", "🤸"},
	{"Dance to Your Favorite Song", "Put on an upbeat song and move your body however feels good", "3-5 minutes", "exercise", "💃"},
	{"Draw or Doodle", "Grab paper and draw anything - patterns, faces, or whatever comes to mind", "10-20 minutes", "art", "🎨"},
	{"Write in a Journal", "Write about your feelings, or write a story, poem, or letter to yourself", "10-15 minutes", "writing", "📝"},
	{"Take Photos of Beautiful Things", "Use your phone to capture something beautiful around you - flowers, clouds, pets", "5-15 minutes", "photography", "📸"},
	{"Mindful Tea/Coffee Break", "Make a warm drink and focus on the smell, warmth, and taste mindfully", "10-15 minutes", "mindfulness", "☕"},
	{"Gratitude List", "Write down 3 things you're grateful for today, no matter how small", "5-10 minutes", "gratitude", "🙏"},
	{"Text a Friend Something Positive", "Send a compliment, funny meme, or just say hi to someone you care about", "2-5 minutes", "social", "💬"},
	{"Watch Funny Videos", "Look up comedy clips, cute animals, or funny TikToks to get some laughs", "10-15 minutes", "entertainment", "😂"},
}

var neutral = []Activity{
	{"Organize One Small Space", "Clean your desk, organize a drawer, or tidy up one corner of your room", "10-20 minutes", "organization", "🧹"},
	{"Learn Something New", "Watch a tutorial, read an article, or practice a skill for 10 minutes", "10-30 minutes", "learning", "📚"},
	{"Plan Something Fun", "Plan a future activity, trip, or goal. Having something to look forward to helps mood", "10-15 minutes", "planning", "📅"},
	{"Take a Relaxing Shower/Bath", "Enjoy warm water, use nice soap or bubbles, and focus on the sensation", "15-30 minutes", "hygiene", "🛁"},
	{"Do Skincare or Grooming", "Wash your face, moisturize, brush your teeth, or do your hair nicely", "10-15 minutes", "grooming", "🧴"},
	{"Make Your Bed", "Start your day with one accomplished task. It sets a positive tone", "2-5 minutes", "organization", "🛏️"},
	{"Sit Outside for 10 Minutes", "Get some fresh air and sunlight. Even a balcony or window works", "10-15 minutes", "nature", "🌞"},
	{"Water Your Plants", "Care for plants or flowers. If you don't have any, look at plants outside", "5-10 minutes", "nature", "🌱"},
}

var positive = []Activity{
	{"Share Your Good Mood", "Call someone you love and share something positive that happened today", "10-20 minutes", "social", "📞"},
	{"Do Something Kind", "Send an encouraging message, help someone, or do a small act of kindness", "5-15 minutes", "kindness", "💝"},
	{"Start a Creative Project", "Begin something you've been wanting to try - art, writing, music, crafts", "20-60 minutes", "creative", "🎨"},
	{"Take on a Fun Challenge", "Try a puzzle, brain teaser, or learn a new skill while you're feeling motivated", "15-30 minutes", "challenge", "🧩"},
	{"Celebrate Small Wins", "Acknowledge something you accomplished recently, even if it seems small", "5-10 minutes", "reflection", "🎉"},
	{"Treat Yourself", "Have a favorite snack, watch a good movie, or do something you enjoy", "30-60 minutes", "reward", "🍰"},
}

// Engine samples from the activity buckets. The source is shared across
// requests, so every draw goes through the mutex.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine builds an engine with a time-seeded source.
func NewEngine() *Engine {
	return &Engine{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewEngineWithSeed builds an engine with a fixed source for reproducible
// sampling.
func NewEngineWithSeed(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Recommend draws up to count activities from the bucket matching the mood
// score and crisis level, optionally narrowed by preference keywords.
func (e *Engine) Recommend(moodScore float64, crisisLevel string, count int, preferences []string) Recommendation {
	if count <= 0 {
		count = 3
	}

	var (
		category    string
		explanation string
		pool        []Activity
	)
	switch {
	case crisisLevel == "critical" || crisisLevel == "high":
		category = "crisis"
		explanation = "🚨 Right now, focus on immediate comfort and grounding techniques."
		pool = append(append([]Activity(nil), crisisGrounding...), crisisComfort...)
	case moodScore < -0.5:
		category = "moderate_negative"
		explanation = "💙 Here are some gentle activities to help lift your mood."
		pool = moderateNegative
	case moodScore < 0.1:
		category = "neutral"
		explanation = "🌱 These activities can help enhance your day and boost your energy."
		pool = neutral
	default:
		category = "positive"
		explanation = "✨ You're feeling good! Here are ways to maintain and celebrate your positive mood."
		pool = positive
	}

	if filtered := filterByPreferences(pool, preferences); len(filtered) > 0 {
		pool = filtered
	}

	return Recommendation{
		MoodCategory: category,
		Explanation:  explanation,
		Activities:   e.sample(pool, count),
		MoodScore:    moodScore,
		CrisisLevel:  crisisLevel,
		Timestamp:    time.Now().UTC(),
	}
}

// EmergencyActivities returns the fixed grounding set for crisis responses,
// bypassing sampling.
func EmergencyActivities() []Activity {
	return append(append([]Activity(nil), crisisGrounding...), crisisComfort...)
}

// DailyActivity picks one random wellness suggestion across every bucket.
func (e *Engine) DailyActivity() DailySuggestion {
	all := allActivities()
	return DailySuggestion{
		DailyActivity: all[e.intn(len(all))],
		Message:       "💡 Daily Wellness Suggestion",
		Timestamp:     time.Now().UTC(),
	}
}

func allActivities() []Activity {
	var all []Activity
	for _, pool := range [][]Activity{crisisGrounding, crisisComfort, moderateNegative, neutral, positive} {
		all = append(all, pool...)
	}
	return all
}

// filterByPreferences keeps activities whose type or title contains any of
// the given keywords, case-insensitive.
func filterByPreferences(pool []Activity, preferences []string) []Activity {
	if len(preferences) == 0 {
		return nil
	}
	var out []Activity
	for _, act := range pool {
		for _, pref := range preferences {
			p := strings.ToLower(pref)
			if p == "" {
				continue
			}
			if strings.Contains(strings.ToLower(act.Type), p) || strings.Contains(strings.ToLower(act.Title), p) {
				out = append(out, act)
				break
			}
		}
	}
	return out
}

// sample draws without replacement, clamped to the pool size.
func (e *Engine) sample(pool []Activity, count int) []Activity {
	if count > len(pool) {
		count = len(pool)
	}
	out := make([]Activity, 0, count)
	for _, i := range e.perm(len(pool))[:count] {
		out = append(out, pool[i])
	}
	return out
}

func (e *Engine) perm(n int) []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Perm(n)
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}
