package seqid

import (
	"image"
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 341, Y: 264}
	p2 := Point{X: 421, Y: 427}
	correnctAnswer := 181.57367
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correnctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correnctAnswer)
	}
}

func TestRectangleCenter(t *testing.T) {
	rect := NewRectFromCorners(236, -25, 386, 35)
	center := rect.Center()
	if math.Abs(center.X-311.0) > eps || math.Abs(center.Y-5.0) > eps {
		t.Errorf("Wrong center: %v, correct answer: %v", center, Point{X: 311, Y: 5})
	}
	fromImage := NewRectFrom(image.Rect(10, 20, 30, 60))
	if fromImage != NewRect(10, 20, 20, 40) {
		t.Errorf("Wrong rectangle: %v", fromImage)
	}
	if got := NewRect(0, 0, 10, 4).Center(); got != NewPoint(5, 2) {
		t.Errorf("Wrong center: %v, correct answer: %v", got, NewPoint(5, 2))
	}
	if !(Rectangle{}).IsZero() || fromImage.IsZero() {
		t.Errorf("IsZero mismatch")
	}
}
