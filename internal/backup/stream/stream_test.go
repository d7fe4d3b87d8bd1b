package stream

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shelfItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func archive(t *testing.T, write func(zw *zip.Writer)) *zip.Reader {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write(zw)
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return zr
}

func rawEntry(t *testing.T, name, body string) *zip.Reader {
	return archive(t, func(zw *zip.Writer) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	})
}

func TestLinesAndRecords(t *testing.T) {
	items := []shelfItem{
		{ID: "book-1", Title: "Dune"},
		{ID: "book-2", Title: "Emma"},
	}
	zr := archive(t, func(zw *zip.Writer) {
		n, err := Lines(zw, "entities/books.jsonl", items)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	var got []shelfItem
	for item, err := range Records[shelfItem](zr, "entities/books.jsonl") {
		require.NoError(t, err)
		got = append(got, item)
	}
	assert.Equal(t, items, got)
}

func TestRecords_ReportsBadLineAndContinues(t *testing.T) {
	zr := rawEntry(t, "b.jsonl", "{\"id\":\"book-1\"}\n\nnot json\n{\"id\":\"book-2\"}\n")

	var ids []string
	var lineErrs []*LineError
	for item, err := range Records[shelfItem](zr, "b.jsonl") {
		if err != nil {
			var le *LineError
			require.ErrorAs(t, err, &le)
			lineErrs = append(lineErrs, le)
			continue
		}
		ids = append(ids, item.ID)
	}

	assert.Equal(t, []string{"book-1", "book-2"}, ids)
	require.Len(t, lineErrs, 1)
	assert.Equal(t, 3, lineErrs[0].Line)
	assert.Equal(t, "b.jsonl", lineErrs[0].Name)
}

func TestRecords_MissingEntry(t *testing.T) {
	zr := rawEntry(t, "present.jsonl", "")

	var errs []error
	for _, err := range Records[shelfItem](zr, "absent.jsonl") {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMissing)
	assert.False(t, Has(zr, "absent.jsonl"))
	assert.True(t, Has(zr, "present.jsonl"))
}

func TestDocument(t *testing.T) {
	zr := archive(t, func(zw *zip.Writer) {
		require.NoError(t, Document(zw, "manifest.json", shelfItem{ID: "m", Title: "v1"}))
	})

	var got shelfItem
	require.NoError(t, ReadDocument(zr, "manifest.json", &got))
	assert.Equal(t, shelfItem{ID: "m", Title: "v1"}, got)

	err := ReadDocument(zr, "settings.json", &got)
	assert.ErrorIs(t, err, ErrMissing)
}
