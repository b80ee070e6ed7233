package message

// ChunkByRecipients splits msg into clones holding at most size recipients
// each. Groups are contiguous and keep recipient order. When size < 1 or the
// message already fits, msg itself is returned as the only element.
func ChunkByRecipients(msg *Message, size int) []*Message {
	if size < 1 || len(msg.Recipients) <= size {
		return []*Message{msg}
	}

	chunks := make([]*Message, 0, (len(msg.Recipients)+size-1)/size)
	for start := 0; start < len(msg.Recipients); start += size {
		end := min(start+size, len(msg.Recipients))

		c := msg.Clone()
		c.Recipients = append([]string(nil), msg.Recipients[start:end]...)
		chunks = append(chunks, c)
	}
	return chunks
}
