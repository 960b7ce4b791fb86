package engine

import (
	"fmt"
	"testing"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// ============================================================================
// Setup Helpers
// ============================================================================

// longSentence returns n four-letter tokens separated by single spaces.
func longSentence(n int) []Token {
	toks := make([]Token, n)
	for i := range toks {
		start := i * 5
		toks[i] = token.New(start, start+3, fmt.Sprintf("w%03d", i%1000))
	}
	return toks
}

func setupLargeEngine(b *testing.B, n int) *Engine {
	b.Helper()
	e := New()
	e.Load(longSentence(n), nil)
	return e
}

// ============================================================================
// Read Operation Benchmarks
// ============================================================================

func BenchmarkEngineItems(b *testing.B) {
	e := setupLargeEngine(b, 1000)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = e.Items()
	}
}

func BenchmarkEngineItemAt(b *testing.B) {
	e := setupLargeEngine(b, 1000)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = e.ItemAt((i % 1000) * 5)
	}
}

func BenchmarkEngineExport(b *testing.B) {
	e := setupLargeEngine(b, 1000)
	for i := 0; i < 1000; i += 4 {
		_, _ = e.Label(i*5, i*5+9, person, ModeAnnotate)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = e.Export()
	}
}

// ============================================================================
// Edit Operation Benchmarks
// ============================================================================

func BenchmarkEngineLabelUndo(b *testing.B) {
	e := setupLargeEngine(b, 1000)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		start := (i % 999) * 5
		_, _ = e.Label(start, start+9, person, ModeAnnotate)
		_ = e.Undo()
	}
}

func BenchmarkEngineReviewLabel(b *testing.B) {
	e := setupLargeEngine(b, 1000)
	for i := 0; i < 1000; i += 2 {
		_, _ = e.Label(i*5, i*5+4, person, ModeAnnotate)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		start := (i % 990) * 5
		_, _ = e.Label(start, start+49, org, ModeReview)
		_ = e.Undo()
	}
}

func BenchmarkEngineAccept(b *testing.B) {
	e := setupLargeEngine(b, 1000)
	_, _ = e.Label(0, 4, person, ModeAnnotate)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = e.Accept(0)
		_ = e.Undo()
	}
}

// ============================================================================
// Tracking Benchmarks
// ============================================================================

func BenchmarkEngineSnapshotDiff(b *testing.B) {
	e := setupLargeEngine(b, 1000)
	for i := 0; i < 1000; i += 4 {
		_, _ = e.Label(i*5, i*5+4, person, ModeAnnotate)
	}
	id := e.CreateSnapshot("bench")
	_ = e.Relabel(500*5, org)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = e.DiffSinceSnapshot(id)
	}
}
