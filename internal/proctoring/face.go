// Package proctoring runs the cheating heuristic over face detections sent
// by the test client and tracks the proctored test sessions.
package proctoring

import (
	"fmt"
	"math"

	"whitecarrot/internal/errors"
)

// Point is an [x, y] pixel coordinate
type Point [2]float64

// X returns the horizontal coordinate
func (p Point) X() float64 { return p[0] }

// Y returns the vertical coordinate
func (p Point) Y() float64 { return p[1] }

// Landmark indexes inside Face.Landmarks
const (
	RightEye = iota
	LeftEye
	Nose
	Mouth
	RightEar
	LeftEar
)

// Face is one detected face: its bounding box and six landmarks in the
// order right eye, left eye, nose, mouth, right ear, left ear
type Face struct {
	TopLeft     Point   `json:"topLeft"`
	BottomRight Point   `json:"bottomRight"`
	Landmarks   []Point `json:"landmarks"`
}

// Direction is where a face is turned
type Direction string

const (
	Center Direction = "center"
	Up     Direction = "up"
	Down   Direction = "down"
	Left   Direction = "left"
	Right  Direction = "right"
)

// Gaze is the outcome of the face geometry heuristic
type Gaze struct {
	LookingAway bool      `json:"lookingAway"`
	Direction   Direction `json:"direction"`
	MouthOpen   bool      `json:"mouthOpen"`
	Confidence  float64   `json:"confidence"`
}

const (
	verticalTolerance  = 0.15 // share of face height
	eyeSpacingRatio    = 0.4  // expected eye distance as share of face width
	eyeSpacingMinimum  = 0.7  // below this share of the expected distance the head is turned
	mouthOpenThreshold = 0.08 // share of face height
	gazeConfidence     = 0.85
)

// AnalyzeFace estimates head orientation and mouth opening from landmarks.
// A sideways turn overrides an up or down reading.
func AnalyzeFace(f Face) (Gaze, error) {
	if len(f.Landmarks) < Mouth+1 {
		return Gaze{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("face needs at least %d landmarks, got %d", Mouth+1, len(f.Landmarks)), nil)
	}

	rightEye := f.Landmarks[RightEye]
	leftEye := f.Landmarks[LeftEye]
	nose := f.Landmarks[Nose]
	mouth := f.Landmarks[Mouth]

	width := f.BottomRight.X() - f.TopLeft.X()
	height := f.BottomRight.Y() - f.TopLeft.Y()
	centerY := (f.TopLeft.Y() + f.BottomRight.Y()) / 2
	eyeLevel := (rightEye.Y() + leftEye.Y()) / 2

	g := Gaze{Direction: Center, Confidence: gazeConfidence}

	if eyeLevel > centerY+height*verticalTolerance {
		g.LookingAway, g.Direction = true, Down
	}
	if eyeLevel < centerY-height*verticalTolerance {
		g.LookingAway, g.Direction = true, Up
	}

	eyeDistance := math.Abs(rightEye.X() - leftEye.X())
	if eyeDistance < width*eyeSpacingRatio*eyeSpacingMinimum {
		g.LookingAway = true
		if nose.X() < (f.TopLeft.X()+f.BottomRight.X())/2 {
			g.Direction = Left
		} else {
			g.Direction = Right
		}
	}

	g.MouthOpen = math.Abs(mouth.Y()-nose.Y()) > height*mouthOpenThreshold
	return g, nil
}
