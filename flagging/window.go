package flagging

import (
	"errors"
	"fmt"
	"math"
)

const hoursPerWeek = 24 * 7

var ErrInvalidFrequency = errors.New("sampling frequency must be positive")

// Range is an inclusive range of stream positions. Lo and Hi may lie outside
// the stream; such positions simply never match a reading.
type Range struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

func (r Range) Contains(position int) bool {
	return position >= r.Lo && position <= r.Hi
}

func (r Range) Len() int {
	if r.Hi < r.Lo {
		return 0
	}
	return r.Hi - r.Lo + 1
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Lo, r.Hi)
}

// Calculator computes the context and decision windows for a sampling
// frequency given in readings per hour.
type Calculator struct {
	frequency float64
	step      int
}

func NewCalculator(frequency float64) (*Calculator, error) {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, frequency)
	}

	return &Calculator{
		frequency: frequency,
		// one week of readings; the epsilon absorbs float noise such as 168/(1/3)
		step: int(math.Floor(hoursPerWeek/frequency + 1e-9)),
	}, nil
}

func (c *Calculator) Frequency() float64 {
	return c.frequency
}

// Step is the number of positions covering one week of readings.
func (c *Calculator) Step() int {
	return c.step
}

// Windows returns the context window [p-3k, p+3k] and the decision window
// [p-2k, p+k] for position p, with k = Step(). The decision window keeps more
// history than future and always lies inside the context window.
func (c *Calculator) Windows(position int) (context Range, decision Range) {
	k := c.step
	context = Range{Lo: position - 3*k, Hi: position + 3*k}
	decision = Range{Lo: position - 2*k, Hi: position + k}
	return context, decision
}

// Windows is a shorthand for NewCalculator(frequency) followed by Windows(position).
func Windows(position int, frequency float64) (Range, Range, error) {
	calc, err := NewCalculator(frequency)
	if err != nil {
		return Range{}, Range{}, err
	}

	context, decision := calc.Windows(position)
	return context, decision, nil
}
