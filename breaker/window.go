package breaker

import "sync"

// window 计数滑动窗口，环形缓冲区按完成顺序记录最近 size 次结果
//
// epoch 在每次 reset 时递增，用于丢弃在旧代际开始、在新代际完成的调用结果。
type window struct {
	mu       sync.Mutex
	buffer   []bool // true 表示失败
	index    int
	total    int
	failures int
	epoch    uint64
}

func newWindow(size int) *window {
	return &window{buffer: make([]bool, size)}
}

func (w *window) currentEpoch() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.epoch
}

// record 写入一次结果；epoch 已过期时丢弃并返回 false
func (w *window) record(epoch uint64, failed bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if epoch != w.epoch {
		return false
	}

	size := len(w.buffer)
	if w.total == size && w.buffer[w.index] {
		w.failures--
	}
	w.buffer[w.index] = failed
	if failed {
		w.failures++
	}
	w.index = (w.index + 1) % size
	if w.total < size {
		w.total++
	}
	return true
}

// shouldTrip 样本数达到 minCalls 且失败率（百分比）不低于 threshold
func (w *window) shouldTrip(minCalls int, threshold float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.total < minCalls || w.total == 0 {
		return false
	}
	return float64(w.failures)*100/float64(w.total) >= threshold
}

func (w *window) stats() (total, failures int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total, w.failures
}

func (w *window) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	clear(w.buffer)
	w.index = 0
	w.total = 0
	w.failures = 0
	w.epoch++
}
