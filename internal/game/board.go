// internal/game/board.go
//
// Board geometry for the marble race.
// Responsibilities:
//   - Fixed track and home-lane dimensions.
//   - Per-color start cells and home-lane offsets.
//   - Safe-spot lookup.
//
// Layout:
//   - Track cells are 0..55 and wrap around.
//   - Each color owns a private 4-cell home lane numbered from its HomeEntry
//     (red 56..59, blue 60..63, green 64..67, yellow 68..71).
//   - Start area is the sentinel position -1.
//
// Everything in this file is a pure lookup; the generator and the AI share it.

package game

const (
	TrackSize        = 56 // cells on the shared circular track
	HomeSize         = 4  // cells in each private home lane
	MarblesPerPlayer = 4
	MinPlayers       = 2
	MaxPlayers       = 4

	// StartArea is the position of a marble that has not entered the track.
	StartArea = -1
)

var startPositions = [...]int{
	Red:    0,
	Blue:   14,
	Green:  28,
	Yellow: 42,
}

var homeEntries = [...]int{
	Red:    56,
	Blue:   60,
	Green:  64,
	Yellow: 68,
}

// StartPosition returns the track cell where marbles of color c enter the
// track. It is also the cell that diverts them into their home lane.
func StartPosition(c Color) int { return startPositions[c] }

// HomeEntry returns the first home-lane position of color c.
func HomeEntry(c Color) int { return homeEntries[c] }

// FinishPosition returns the last home-lane cell of color c.
func FinishPosition(c Color) int { return homeEntries[c] + HomeSize - 1 }

// IsSafe reports whether a track cell protects its occupant from capture.
// The safe spots coincide with the four start cells.
func IsSafe(pos int) bool {
	for _, s := range startPositions {
		if s == pos {
			return true
		}
	}
	return false
}

// SafeSpots returns the safe track cells in ascending order.
func SafeSpots() []int {
	out := make([]int, len(startPositions))
	copy(out, startPositions[:])
	return out
}

// IsTrackCell reports whether pos lies on the shared track.
func IsTrackCell(pos int) bool { return pos >= 0 && pos < TrackSize }

// InHomeLane reports whether pos lies inside the home lane of color c.
func InHomeLane(c Color, pos int) bool {
	h := homeEntries[c]
	return pos >= h && pos < h+HomeSize
}

// TrackDistance returns how many forward steps take a marble from one track
// cell to another, in 0..TrackSize-1.
func TrackDistance(from, to int) int {
	return ((to-from)%TrackSize + TrackSize) % TrackSize
}

// Advance moves a track cell n steps forward with wrap-around.
func Advance(pos, n int) int {
	return ((pos+n)%TrackSize + TrackSize) % TrackSize
}
