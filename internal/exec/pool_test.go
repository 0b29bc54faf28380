package exec

import (
	"testing"
)

func TestBufferPool(t *testing.T) {
	t.Run("resets buffer before returning", func(t *testing.T) {
		buf := getBuffer()
		buf.WriteString("test data")
		putBuffer(buf)

		buf2 := getBuffer()
		if buf2.Len() != 0 {
			t.Errorf("expected reset buffer, got length %d", buf2.Len())
		}
		putBuffer(buf2)
	})

	t.Run("copyBuffer detaches data", func(t *testing.T) {
		buf := getBuffer()
		buf.WriteString("test data")

		copied := copyBuffer(buf)
		buf.Reset()
		buf.WriteString("overwritten")

		if string(copied) != "test data" {
			t.Errorf("expected 'test data', got %q", string(copied))
		}
		putBuffer(buf)
	})

	t.Run("copyBuffer returns nil for empty buffer", func(t *testing.T) {
		buf := getBuffer()
		if copied := copyBuffer(buf); copied != nil {
			t.Errorf("expected nil for empty buffer, got %v", copied)
		}
		putBuffer(buf)
	})
}
