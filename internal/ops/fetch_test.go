package ops

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snapper/internal/errors"
)

func TestFetch_WithContent(t *testing.T) {
	database, cfg := setupTest(t)
	d := newTestDriver(t)
	captured, err := Capture(context.Background(), database, cfg, nil, NewCapturer(d, cfg), CaptureInput{FeatureFile: "a.feature", StepLine: 1})
	require.NoError(t, err)

	out, err := Fetch(database, FetchInput{ID: captured.Artifact.ID})
	require.NoError(t, err)
	require.Equal(t, captured.Artifact.Base, out.Base)
	require.Empty(t, out.Content)
	require.Empty(t, out.Missing)

	out, err = Fetch(database, FetchInput{ID: " " + captured.Artifact.ID + " ", IncludeContent: true})
	require.NoError(t, err)
	require.Equal(t, testHTML, out.Content)
	require.False(t, out.Truncated)
}

func TestFetch_TruncatesLargeContent(t *testing.T) {
	database, cfg := setupTest(t)
	d := newTestDriver(t)
	d.HTML = strings.Repeat("x", MaxFetchContentBytes+10)
	captured, err := Capture(context.Background(), database, cfg, nil, NewCapturer(d, cfg), CaptureInput{})
	require.NoError(t, err)

	out, err := Fetch(database, FetchInput{ID: captured.Artifact.ID, IncludeContent: true})
	require.NoError(t, err)
	require.True(t, out.Truncated)
	require.Len(t, out.Content, MaxFetchContentBytes)
}

func TestFetch_MissingFiles(t *testing.T) {
	database, cfg := setupTest(t)
	d := newTestDriver(t)
	captured, err := Capture(context.Background(), database, cfg, nil, NewCapturer(d, cfg), CaptureInput{})
	require.NoError(t, err)
	require.NoError(t, os.Remove(captured.Artifact.ContentPath))

	out, err := Fetch(database, FetchInput{ID: captured.Artifact.ID})
	require.NoError(t, err)
	require.Equal(t, []string{captured.Artifact.ContentPath}, out.Missing)

	_, err = Fetch(database, FetchInput{ID: captured.Artifact.ID, IncludeContent: true})
	require.True(t, errors.Is(err, errors.ErrFileNotFound), "got %v", err)
}

func TestFetch_Errors(t *testing.T) {
	database, _ := setupTest(t)

	_, err := Fetch(database, FetchInput{ID: "  "})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Fetch(database, FetchInput{ID: "01NOPE"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
