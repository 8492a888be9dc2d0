package wellness

import "math/rand"

// cbtTips are short cognitive-behavioral prompts attached to analysis
// responses.
var cbtTips = []string{
	"Notice the thought, then ask: what evidence do I have that it's true?",
	"Feelings are not facts. Name the emotion and let it pass through you.",
	"Break the problem into one small step you can take in the next ten minutes.",
	"Challenge all-or-nothing thinking: is there a middle ground you're missing?",
	"Write the worry down. On paper it's usually smaller than in your head.",
	"Ask yourself: what would I tell a friend who had this exact thought?",
	"Catastrophizing? Rate how likely the worst case really is, from 0 to 100.",
	"Swap 'I must' for 'I would prefer'. Demands on yourself fuel anxiety.",
	"Schedule one pleasant activity today, however small. Action shifts mood.",
	"When your mind says 'always' or 'never', look for the exception.",
	"Ground yourself: five things you can see, four you can touch, three you can hear.",
	"Progress over perfection. A small imperfect step beats a perfect plan.",
}

// RandomTip draws one CBT tip with the provided source, or the global one
// when rng is nil.
func RandomTip(rng *rand.Rand) string {
	if rng == nil {
		return cbtTips[rand.Intn(len(cbtTips))]
	}
	return cbtTips[rng.Intn(len(cbtTips))]
}
