package main

import "math/rand"

// QuizQuestion is one entry in the fixed question bank. Questions exist
// to give every player something to do with their hands while the cult
// goes about its business; grading is cosmetic but authoritative.
type QuizQuestion struct {
	Text          string   `json:"text"`
	Choices       []string `json:"choices"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// quizQuestions is the shared bank. Minigames assign indices 0..9.
var quizQuestions = []QuizQuestion{
	{
		Text:          "Which side of a ship is port?",
		Choices:       []string{"Left", "Right", "Front", "Back"},
		CorrectAnswer: 0,
	},
	{
		Text:          "What is a ship's wheel attached to?",
		Choices:       []string{"The anchor", "The rudder", "The mast", "The keel"},
		CorrectAnswer: 1,
	},
	{
		Text:          "What does 'avast' mean?",
		Choices:       []string{"Attack", "Eat", "Stop", "Sleep"},
		CorrectAnswer: 2,
	},
	{
		Text:          "Which flag signals a pirate ship?",
		Choices:       []string{"White ensign", "Jolly Roger", "Blue peter", "Yellow jack"},
		CorrectAnswer: 1,
	},
	{
		Text:          "What is kept in the crow's nest?",
		Choices:       []string{"Crows", "Cannonballs", "A lookout", "Rum"},
		CorrectAnswer: 2,
	},
	{
		Text:          "What is hardtack?",
		Choices:       []string{"A sail knot", "A dry biscuit", "A deck brush", "A rope ladder"},
		CorrectAnswer: 1,
	},
	{
		Text:          "How many tentacles does a kraken prefer?",
		Choices:       []string{"Six", "Eight", "Ten", "All of them"},
		CorrectAnswer: 3,
	},
	{
		Text:          "What does a navigator use to find latitude?",
		Choices:       []string{"A sextant", "A cutlass", "A spyglass", "A compass"},
		CorrectAnswer: 0,
	},
	{
		Text:          "Scurvy is prevented by eating what?",
		Choices:       []string{"Salt pork", "Citrus", "Seaweed", "Gunpowder"},
		CorrectAnswer: 1,
	},
	{
		Text:          "Where does a stowaway hide?",
		Choices:       []string{"The brig", "The galley", "The hold", "The helm"},
		CorrectAnswer: 2,
	},
}

// randomQuestionIndex picks a question for a player at round start.
func randomQuestionIndex(rng *rand.Rand) int {
	return rng.Intn(len(quizQuestions))
}

// validAnswer reports whether answer is a legal choice for the question.
func validAnswer(questionIdx, answer int) bool {
	if questionIdx < 0 || questionIdx >= len(quizQuestions) {
		return false
	}
	return answer >= 0 && answer < len(quizQuestions[questionIdx].Choices)
}

// gradeQuizzes grades each player's answer against their assigned
// question. Players with no recorded answer get a uniformly random
// option, so an absent player is graded by luck rather than skipped.
func gradeQuizzes(questions map[string]int, answers map[string]int, rng *rand.Rand) map[string]bool {
	results := make(map[string]bool, len(questions))
	for playerID, questionIdx := range questions {
		q := quizQuestions[questionIdx]
		answer, ok := answers[playerID]
		if !ok {
			answer = rng.Intn(len(q.Choices))
		}
		results[playerID] = answer == q.CorrectAnswer
	}
	return results
}
