package line

// History is a fixed-capacity ring of StampedLines, accessed most recent
// first.
type History struct {
	items []StampedLines
	head  int
	count int
}

// DefaultHistorySize is the number of cycles kept by default.
const DefaultHistorySize = 32

// NewHistory creates a History keeping size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{items: make([]StampedLines, size)}
}

// Cap gets the capacity.
func (h *History) Cap() int {
	return len(h.items)
}

// Len gets the number of stored entries.
func (h *History) Len() int {
	return h.count
}

// Push stores a snapshot, overwriting the oldest one when full.
// The lines are copied.
func (h *History) Push(s StampedLines) {
	s.Lines = s.Lines.Clone()
	h.head = (h.head + 1) % len(h.items)
	h.items[h.head] = s
	if h.count < len(h.items) {
		h.count++
	}
}

// Peek gets the snapshot stepsBack cycles ago, 0 being the latest.
func (h *History) Peek(stepsBack int) (StampedLines, bool) {
	if stepsBack < 0 || stepsBack >= h.count {
		return StampedLines{}, false
	}
	idx := (h.head - stepsBack + len(h.items)) % len(h.items)
	return h.items[idx], true
}

// FindLine gets the line with id as it was stepsBack cycles ago.
func (h *History) FindLine(id uint32, stepsBack int) (Line, bool) {
	s, ok := h.Peek(stepsBack)
	if !ok {
		return Line{}, false
	}
	return s.Lines.Find(id)
}

// Clear drops all entries.
func (h *History) Clear() {
	for i := range h.items {
		h.items[i] = StampedLines{}
	}
	h.head, h.count = 0, 0
}
