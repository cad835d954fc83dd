package slideparser

// accumulator 保存尚未消费的输入，base 是 buf[0] 在整个输入流中的偏移
type accumulator struct {
	buf  []byte
	base int
}

func (a *accumulator) append(fragment string) {
	a.buf = append(a.buf, fragment...)
}

// consume 丢弃已经消费的前 n 个字节，原地压缩不重新分配
func (a *accumulator) consume(n int) {
	if n <= 0 {
		return
	}
	if n >= len(a.buf) {
		a.base += len(a.buf)
		a.buf = a.buf[:0]
		return
	}
	remain := copy(a.buf, a.buf[n:])
	a.buf = a.buf[:remain]
	a.base += n
}

func (a *accumulator) String() string {
	return string(a.buf)
}

func (a *accumulator) Len() int {
	return len(a.buf)
}

func (a *accumulator) reset() {
	a.buf = a.buf[:0]
	a.base = 0
}
