package image

type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

type diffMask struct {
	width  int
	height int
	bits   []bool
}

func newDiffMask(width int, height int) *diffMask {
	return &diffMask{
		width:  width,
		height: height,
		bits:   make([]bool, width*height),
	}
}

func (m *diffMask) set(x int, y int) {
	m.bits[y*m.width+x] = true
}

func (m *diffMask) get(x int, y int) bool {
	return m.bits[y*m.width+x]
}

// regions returns the bounding boxes of 8-connected clusters in raster order of their first pixel,
// merged when they overlap or lie within mergeDistance of each other.
func (m *diffMask) regions(mergeDistance int) []Rectangle {
	visited := newDiffMask(m.width, m.height)

	var rectangles []Rectangle
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.get(x, y) && !visited.get(x, y) {
				rectangles = append(rectangles, m.findBoundingBox(visited, x, y))
			}
		}
	}

	return mergeRectangles(rectangles, mergeDistance)
}

type point struct {
	x int
	y int
}

func (m *diffMask) findBoundingBox(visited *diffMask, startX int, startY int) Rectangle {
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	queue := []point{{startX, startY}}
	visited.set(startX, startY)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		minX = min(minX, p.x)
		maxX = max(maxX, p.x)
		minY = min(minY, p.y)
		maxY = max(maxY, p.y)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}

				nx := p.x + dx
				ny := p.y + dy
				if nx >= 0 && nx < m.width && ny >= 0 && ny < m.height &&
					m.get(nx, ny) && !visited.get(nx, ny) {
					visited.set(nx, ny)
					queue = append(queue, point{nx, ny})
				}
			}
		}
	}

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

// mergeRectangles repeats merge passes until no two rectangles are close, since a rectangle grown
// in one pass may reach one emitted earlier in the same pass.
func mergeRectangles(rects []Rectangle, distance int) []Rectangle {
	for {
		merged := mergePass(rects, distance)
		if len(merged) == len(rects) {
			return merged
		}
		rects = merged
	}
}

func mergePass(rects []Rectangle, distance int) []Rectangle {
	if len(rects) <= 1 {
		return rects
	}

	merged := make([]Rectangle, 0)
	used := make([]bool, len(rects))

	for i := 0; i < len(rects); i++ {
		if used[i] {
			continue
		}

		current := rects[i]
		mergedAny := true

		for mergedAny {
			mergedAny = false
			for j := i + 1; j < len(rects); j++ {
				if used[j] {
					continue
				}

				if rectanglesClose(current, rects[j], distance) {
					current = combineRectangles(current, rects[j])
					used[j] = true
					mergedAny = true
				}
			}
		}

		merged = append(merged, current)
	}

	return merged
}

func rectanglesOverlap(r1 Rectangle, r2 Rectangle) bool {
	return !(r1.X+r1.Width <= r2.X || r2.X+r2.Width <= r1.X ||
		r1.Y+r1.Height <= r2.Y || r2.Y+r2.Height <= r1.Y)
}

// rectanglesClose reports whether the rectangles overlap once each is grown by threshold on every side.
func rectanglesClose(r1 Rectangle, r2 Rectangle, threshold int) bool {
	grow := func(r Rectangle) Rectangle {
		return Rectangle{
			X:      r.X - threshold,
			Y:      r.Y - threshold,
			Width:  r.Width + 2*threshold,
			Height: r.Height + 2*threshold,
		}
	}
	return rectanglesOverlap(grow(r1), grow(r2))
}

func combineRectangles(r1 Rectangle, r2 Rectangle) Rectangle {
	minX := min(r1.X, r2.X)
	minY := min(r1.Y, r2.Y)
	maxX := max(r1.X+r1.Width, r2.X+r2.Width)
	maxY := max(r1.Y+r1.Height, r2.Y+r2.Height)

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}
