package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidAnswerBounds(t *testing.T) {
	require.True(t, validAnswer(0, 0))
	require.True(t, validAnswer(0, 3))
	require.False(t, validAnswer(0, 4))
	require.False(t, validAnswer(0, -1))
	require.False(t, validAnswer(-1, 0))
	require.False(t, validAnswer(len(quizQuestions), 0))
}

func TestGradeQuizzes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	questions := map[string]int{"right": 0, "wrong": 0}
	answers := map[string]int{
		"right": quizQuestions[0].CorrectAnswer,
		"wrong": (quizQuestions[0].CorrectAnswer + 1) % len(quizQuestions[0].Choices),
	}

	results := gradeQuizzes(questions, answers, rng)
	require.True(t, results["right"])
	require.False(t, results["wrong"])
}

// A player who never answered still shows up in the results, graded on
// a random pick.
func TestGradeQuizzesRandomFallback(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	questions := map[string]int{"absent": 2}
	results := gradeQuizzes(questions, nil, rng)

	require.Len(t, results, 1)
	require.Contains(t, results, "absent")
}
