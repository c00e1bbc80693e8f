package scoring

import "strings"

// Difficulty levels used by questions and problems.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// fallbackTopics maps a difficulty to a topic when a question carries no tags.
var fallbackTopics = map[string]string{
	DifficultyEasy:   "Fundamentals",
	DifficultyMedium: "Problem Solving",
	DifficultyHard:   "Advanced Reasoning",
}

// AnsweredQuestion is one scored aptitude question.
type AnsweredQuestion struct {
	Difficulty string
	Tags       []string
	Correct    bool
}

// BreakdownEntry counts correct answers in one bucket.
type BreakdownEntry struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Breakdown groups aptitude results by difficulty and by topic.
type Breakdown struct {
	ByDifficulty map[string]BreakdownEntry `json:"by_difficulty"`
	ByTopic      map[string]BreakdownEntry `json:"by_topic"`
}

// NormalizeDifficulty lowercases d and defaults unknown values to medium.
func NormalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// TopicFor uses the first non-empty tag, falling back to the difficulty taxonomy.
func TopicFor(difficulty string, tags []string) string {
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			return t
		}
	}
	return fallbackTopics[NormalizeDifficulty(difficulty)]
}

// ComputeBreakdown buckets answered questions by difficulty and topic.
func ComputeBreakdown(questions []AnsweredQuestion) Breakdown {
	b := Breakdown{
		ByDifficulty: make(map[string]BreakdownEntry),
		ByTopic:      make(map[string]BreakdownEntry),
	}
	for _, q := range questions {
		difficulty := NormalizeDifficulty(q.Difficulty)
		b.ByDifficulty[difficulty] = addAnswer(b.ByDifficulty[difficulty], q.Correct)

		topic := TopicFor(q.Difficulty, q.Tags)
		b.ByTopic[topic] = addAnswer(b.ByTopic[topic], q.Correct)
	}
	return b
}

func addAnswer(e BreakdownEntry, correct bool) BreakdownEntry {
	e.Total++
	if correct {
		e.Correct++
	}
	e.Percentage = Percentage(float64(e.Correct), float64(e.Total))
	return e
}
