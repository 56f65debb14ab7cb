package middlewarectx

import (
	"bytes"
	"net/http"
)

// captureWriter буферизует ответ вложенного обработчика вместо отправки клиенту.
// Тело сверх limit отбрасывается.
type captureWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
	limit  int
}

func newCaptureWriter(limit int) *captureWriter {
	return &captureWriter{header: make(http.Header), limit: limit}
}

func (c *captureWriter) Header() http.Header {
	return c.header
}

func (c *captureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	if room := c.limit - c.body.Len(); room > 0 {
		if len(b) > room {
			c.body.Write(b[:room])
		} else {
			c.body.Write(b)
		}
	}
	return len(b), nil
}

// html возвращает тело, если это несжатая HTML-страница.
func (c *captureWriter) html() []byte {
	if c.header.Get("Content-Encoding") != "" {
		return nil
	}
	ct := c.header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(c.body.Bytes())
	}
	if !bytes.HasPrefix([]byte(ct), []byte("text/html")) {
		return nil
	}
	return c.body.Bytes()
}
