package ops

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snapper/internal/artifact"
	"github.com/hpungsan/snapper/internal/db"
)

func newLedgerArtifact(id, dir, feature string, createdAt int64, failure bool) *artifact.Artifact {
	base := fmt.Sprintf("%d.%s.feature_1", createdAt, feature)
	featureFile := "features/" + feature + ".feature"
	return &artifact.Artifact{
		ID:          id,
		RunID:       "run1",
		Base:        base,
		Dir:         dir,
		ContentPath: dir + "/" + base + ".html",
		FeatureFile: &featureFile,
		StepLine:    1,
		Failure:     failure,
		CreatedAt:   createdAt,
	}
}

func TestList_HappyPath(t *testing.T) {
	database, cfg := setupTest(t)
	dir := ArtifactDir(cfg.Dir)

	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Insert(database, newLedgerArtifact(fmt.Sprintf("01L%d", i), dir, "login", int64(i), i == 2)))
	}

	out, err := List(database, ListInput{})
	require.NoError(t, err)
	require.Len(t, out.Items, 3)
	require.Equal(t, "01L3", out.Items[0].ID)
	require.Equal(t, Pagination{Limit: DefaultListLimit, Offset: 0, HasMore: false, Total: 3}, out.Pagination)
	require.Equal(t, "created_at_desc", out.Sort)

	out, err = List(database, ListInput{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	require.Equal(t, "01L2", out.Items[0].ID)
}

func TestList_PaginationBounds(t *testing.T) {
	database, cfg := setupTest(t)
	dir := ArtifactDir(cfg.Dir)
	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Insert(database, newLedgerArtifact(fmt.Sprintf("01P%d", i), dir, "cart", int64(i), false)))
	}

	out, err := List(database, ListInput{Limit: 2, Offset: -4})
	require.NoError(t, err)
	require.Equal(t, 0, out.Pagination.Offset)
	require.True(t, out.Pagination.HasMore)

	out, err = List(database, ListInput{Limit: 1000})
	require.NoError(t, err)
	require.Equal(t, MaxListLimit, out.Pagination.Limit)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	database, _ := setupTest(t)

	out, err := List(database, ListInput{Feature: "missing"})
	require.NoError(t, err)
	require.NotNil(t, out.Items)
	require.Empty(t, out.Items)
}
