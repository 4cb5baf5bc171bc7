// Package samples holds the catalog of example command sentences, search
// over it, and batch checking of sentences against the parser.
package samples

// Category represents a logical grouping of sample sentences.
type Category string

const (
	CatMessaging  Category = "messaging"
	CatReporting  Category = "reporting"
	CatDeadlines  Category = "deadlines"
	CatConditions Category = "conditions"
	CatAttendance Category = "attendance"
	CatAmbiguous  Category = "ambiguous"
)

// Sample is one example command sentence.
type Sample struct {
	Sentence    string // "message students with no submissions for lab"
	Description string // what the command asks for
	Category    Category
	Tags        []string // search tags
	Ambiguous   bool     // the sentence has more than one derivation
}

// CategoryLabel returns a human-readable label for a category.
func CategoryLabel(cat Category) string {
	labels := map[Category]string{
		CatMessaging:  "Messaging",
		CatReporting:  "Reports",
		CatDeadlines:  "Deadlines",
		CatConditions: "Score Conditions",
		CatAttendance: "Attendance",
		CatAmbiguous:  "Ambiguous Sentences",
	}
	if label, ok := labels[cat]; ok {
		return label
	}
	return string(cat)
}

// AllCategories returns all categories in display order.
func AllCategories() []Category {
	return []Category{
		CatMessaging,
		CatReporting,
		CatDeadlines,
		CatConditions,
		CatAttendance,
		CatAmbiguous,
	}
}

// ByCategory returns all samples in the given category.
func ByCategory(cat Category) []Sample {
	var out []Sample
	for _, s := range allSamples {
		if s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// All returns every sample in catalog order.
func All() []Sample {
	out := make([]Sample, len(allSamples))
	copy(out, allSamples)
	return out
}

// Sentences returns the sentence of every sample in catalog order.
func Sentences() []string {
	out := make([]string, len(allSamples))
	for i, s := range allSamples {
		out[i] = s.Sentence
	}
	return out
}

var allSamples = []Sample{
	// ── Messaging ──
	{
		Sentence:    "message students with no submissions for lab",
		Description: "Message every student who has not submitted the lab",
		Category:    CatMessaging,
		Tags:        []string{"message", "submissions", "missing", "lab", "reminder"},
	},
	{
		Sentence:    "message students with no submissions for assignment 2",
		Description: "Message students missing a numbered assignment",
		Category:    CatMessaging,
		Tags:        []string{"message", "submissions", "missing", "assignment", "reminder"},
	},

	// ── Reports ──
	{
		Sentence:    "show me students with no submissions for assignment 1",
		Description: "List students missing a numbered assignment",
		Category:    CatReporting,
		Tags:        []string{"show", "list", "submissions", "missing", "assignment"},
	},
	{
		Sentence:    "show me comments on lab 2",
		Description: "List submission comments left on a numbered lab",
		Category:    CatReporting,
		Tags:        []string{"show", "list", "comments", "feedback", "lab"},
	},
	{
		Sentence:    "show me last comments for lecture 3",
		Description: "List the latest comments on a lecture",
		Category:    CatReporting,
		Tags:        []string{"show", "list", "comments", "latest", "lecture"},
	},

	// ── Deadlines ──
	{
		Sentence:    "extend deadlines for students with no submissions on lab 3",
		Description: "Extend the deadline of a lab for students who have not submitted",
		Category:    CatDeadlines,
		Tags:        []string{"extend", "deadline", "extension", "submissions", "lab"},
	},
	{
		Sentence:    "extend deadlines on 12/1/2024 for lab 4",
		Description: "Move lab deadlines to a date",
		Category:    CatDeadlines,
		Tags:        []string{"extend", "deadline", "extension", "date", "lab"},
	},

	// ── Score conditions ──
	{
		Sentence:    "message students with score < 70% on test 1",
		Description: "Message students who scored under a percentage on a test",
		Category:    CatConditions,
		Tags:        []string{"message", "score", "grade", "percentage", "test", "comparison"},
	},
	{
		Sentence:    "show me students with score > 90% on lab 1",
		Description: "List students who scored over a percentage on a lab",
		Category:    CatConditions,
		Tags:        []string{"show", "list", "score", "grade", "percentage", "lab", "comparison"},
	},

	// ── Attendance ──
	{
		Sentence:    "message students who did not attend the last lecture",
		Description: "Message students absent from the most recent lecture",
		Category:    CatAttendance,
		Tags:        []string{"message", "attendance", "absent", "lecture", "latest"},
	},
	{
		Sentence:    "message students who did not attend lecture on 7/30",
		Description: "Message students absent from the lecture on a date",
		Category:    CatAttendance,
		Tags:        []string{"message", "attendance", "absent", "lecture", "date"},
	},

	// ── Ambiguous ──
	{
		Sentence:    "message students with the lab",
		Description: "The first noun may take \"with\" as its own preposition",
		Category:    CatAmbiguous,
		Tags:        []string{"message", "ambiguous", "preposition", "lab"},
		Ambiguous:   true,
	},
	{
		Sentence:    "message students with lab on test",
		Description: "The \"on\" phrase attaches to either noun",
		Category:    CatAmbiguous,
		Tags:        []string{"message", "ambiguous", "attachment", "lab", "test"},
		Ambiguous:   true,
	},
}
