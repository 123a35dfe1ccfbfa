package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOptionalText(t *testing.T) {
	assert.Nil(t, NormalizeOptionalText(nil))

	blank := "   "
	assert.Nil(t, NormalizeOptionalText(&blank))

	padded := "  текст  "
	got := NormalizeOptionalText(&padded)
	assert.Equal(t, "текст", *got)
}

func TestNormalizeEvidenceURLs(t *testing.T) {
	t.Run("обрезка и отброс пустых", func(t *testing.T) {
		got, err := NormalizeEvidenceURLs([]string{" https://example.com/a.png ", "", "  "})
		assert.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a.png"}, got)
	})

	t.Run("недопустимая схема", func(t *testing.T) {
		_, err := NormalizeEvidenceURLs([]string{"ftp://example.com/a"})
		assert.Error(t, err)
	})

	t.Run("ссылка без хоста", func(t *testing.T) {
		_, err := NormalizeEvidenceURLs([]string{"https://"})
		assert.Error(t, err)
	})

	t.Run("слишком длинная ссылка", func(t *testing.T) {
		long := "https://example.com/" + strings.Repeat("a", MaxEvidenceURLLength)
		_, err := NormalizeEvidenceURLs([]string{long})
		assert.Error(t, err)
	})

	t.Run("слишком много ссылок", func(t *testing.T) {
		urls := make([]string, MaxEvidenceURLs+1)
		for i := range urls {
			urls[i] = "https://example.com/a.png"
		}
		_, err := NormalizeEvidenceURLs(urls)
		assert.Error(t, err)
	})
}
