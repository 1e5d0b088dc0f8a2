package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRef(t *testing.T) {
	ref, err := imageRef("https://picsum.photos/seed/keys/400/400")
	require.NoError(t, err)
	assert.Equal(t, "https://picsum.photos/seed/keys/400/400", ref)

	ref, err = imageRef("data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", ref)

	path := filepath.Join(t.TempDir(), "keys.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	require.NoError(t, os.WriteFile(path, png, 0o644))

	ref, err = imageRef(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "data:image/png;base64,"))

	_, err = imageRef("")
	assert.Error(t, err)
}

func TestPrintMatches(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMatches(&buf, nil))
	assert.Equal(t, "No matches found.\n", buf.String())

	buf.Reset()
	require.NoError(t, printMatches(&buf, []models.ScoredMatch{{
		LostItemReport: models.LostItemReport{ID: "lost-1", ItemName: "Jansport Backpack", Profile: models.Profile{FullName: "Jane Doe"}},
		Confidence:     92,
		Band:           models.BandHigh,
		Reasoning:      "same patch",
	}}))
	assert.Contains(t, buf.String(), "92%")
	assert.Contains(t, buf.String(), "lost-1")
	assert.Contains(t, buf.String(), "Jane Doe")
}
