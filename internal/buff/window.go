package buff

// SlotWindow is a rotated range of physical slots searched in order.
// Nth(i) for i in [0, Count) visits Start..Count-1 first, then wraps to 0.
type SlotWindow struct {
	Start int
	Count int
}

// BaseWindow searches the classic slots only.
func BaseWindow() SlotWindow {
	return SlotWindow{Start: 0, Count: BaseSlots}
}

// SongWindow searches the extended slots first, then the base range.
// total is the negotiated addressable slot count.
func SongWindow(total int) SlotWindow {
	return SlotWindow{Start: BaseSlots, Count: total}
}

// Nth maps search index i to a physical slot index. Count must be > 0.
func (w SlotWindow) Nth(i int) int {
	return (i + w.Start) % w.Count
}

// Len returns the number of candidates in the window.
func (w SlotWindow) Len() int {
	return w.Count
}
