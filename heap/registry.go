package heap

// registry is the doubly linked list of every block known to the allocator, in the order blocks
// were linked. Arena blocks appear in ascending address order relative to one another; mapped
// blocks may sit anywhere between them.
type registry struct {
	start *blockHeader
	end   *blockHeader
	count int
}

func (r *registry) isEmpty() bool {
	return r.start == nil
}

func (r *registry) pushBack(block *blockHeader) {
	block.next = nil
	block.prev = r.end

	if r.end == nil {
		r.start = block
	} else {
		r.end.next = block
	}

	r.end = block
	r.count++
}

func (r *registry) insertAfter(anchor, block *blockHeader) {
	block.prev = anchor
	block.next = anchor.next

	if anchor.next != nil {
		anchor.next.prev = block
	} else {
		r.end = block
	}

	anchor.next = block
	r.count++
}

func (r *registry) unlink(block *blockHeader) {
	prev := block.prev
	next := block.next

	if prev != nil {
		prev.next = next
	} else {
		r.start = next
	}

	if next != nil {
		next.prev = prev
	} else {
		r.end = prev
	}

	block.prev = nil
	block.next = nil
	r.count--
}

func (r *registry) reset() {
	r.start = nil
	r.end = nil
	r.count = 0
}

// lastArenaBlock walks backward from the tail past any mapped blocks
func (r *registry) lastArenaBlock() *blockHeader {
	block := r.end
	for block != nil && !block.isArena() {
		block = block.prev
	}
	return block
}

// nextArenaBlock returns the first arena block linked after block, skipping mapped blocks
func nextArenaBlock(block *blockHeader) *blockHeader {
	next := block.next
	for next != nil && !next.isArena() {
		next = next.next
	}
	return next
}

// prevArenaBlock returns the first arena block linked before block, skipping mapped blocks
func prevArenaBlock(block *blockHeader) *blockHeader {
	prev := block.prev
	for prev != nil && !prev.isArena() {
		prev = prev.prev
	}
	return prev
}
