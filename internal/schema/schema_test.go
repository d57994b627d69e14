package schema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/engagement-advisor/internal/schema"
)

// trainedColumns is the column list the model was fit against.
var trainedColumns = []string{
	"likes", "comments", "shares", "saves", "reach", "impressions",
	"caption_length", "hashtags_count", "followers_gained",
	"media_type_Carousel", "media_type_Photo", "media_type_Reel", "media_type_Video",
	"traffic_source_Explore", "traffic_source_External", "traffic_source_Hashtags",
	"traffic_source_Home Feed", "traffic_source_Profile", "traffic_source_Reels Feed",
	"content_category_Beauty", "content_category_Comedy", "content_category_Fashion",
	"content_category_Fitness", "content_category_Food", "content_category_Lifestyle",
	"content_category_Music", "content_category_Photography", "content_category_Technology",
	"content_category_Travel",
}

func TestDefault_MatchesTrainedColumns(t *testing.T) {
	t.Parallel()

	s := schema.Default()

	assert.Equal(t, schema.DefaultVersion, s.Version())
	assert.Equal(t, trainedColumns, s.Columns())
	assert.Equal(t, 29, s.Len())
	assert.Len(t, s.Numeric(), 9)
	require.NoError(t, s.Verify(trainedColumns))
}

func TestSchema_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	s := schema.Default()

	cols := s.Columns()
	cols[0] = "tampered"
	dims := s.Dimensions()
	dims[0].Values[0] = "Tampered"

	assert.Equal(t, "likes", s.Columns()[0])
	values, ok := s.Values("media_type")
	require.True(t, ok)
	assert.Equal(t, "Carousel", values[0])
}

func TestSchema_Indicator(t *testing.T) {
	t.Parallel()

	s := schema.Default()

	i, ok := s.Indicator("traffic_source", "Reels Feed")
	require.True(t, ok)
	assert.Equal(t, 18, i)

	_, ok = s.Indicator("traffic_source", "Stories")
	assert.False(t, ok)

}

func TestSchema_Named(t *testing.T) {
	t.Parallel()

	s := schema.Default()
	vec := make([]float64, s.Len())
	vec[0] = 1000
	i, _ := s.Indicator("media_type", "Reel")
	vec[i] = 1

	named := s.Named(vec)
	require.Len(t, named, 29)
	assert.InDelta(t, 1000.0, named["likes"], 0)
	assert.InDelta(t, 1.0, named["media_type_Reel"], 0)
	assert.InDelta(t, 0.0, named["media_type_Photo"], 0)

	short := s.Named(vec[:2])
	assert.Len(t, short, 2)
}

func TestSchema_Verify(t *testing.T) {
	t.Parallel()

	s := schema.Default()

	swapped := append([]string(nil), trainedColumns...)
	swapped[9], swapped[10] = swapped[10], swapped[9]

	tests := []struct {
		name  string
		names []string
	}{
		{name: "reordered", names: swapped},
		{name: "short", names: trainedColumns[:28]},
		{name: "renamed", names: append(append([]string(nil), trainedColumns[:28]...), "content_category_Travelling")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, s.Verify(tt.names), schema.ErrSchemaMismatch)
		})
	}

	assert.NoError(t, s.VerifyCount(29))
	assert.ErrorIs(t, s.VerifyCount(30), schema.ErrSchemaMismatch)
}

func TestNew_RejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		version string
		numeric []string
		dims    []schema.Dimension
	}{
		{name: "no version", numeric: []string{"likes"}},
		{name: "no columns", version: "v9"},
		{name: "duplicate numeric", version: "v9", numeric: []string{"likes", "likes"}},
		{name: "empty dimension", version: "v9", dims: []schema.Dimension{{Name: "media_type"}}},
		{name: "duplicate value", version: "v9", dims: []schema.Dimension{{Name: "media_type", Values: []string{"Reel", "Reel"}}}},
		{name: "indicator collides with numeric", version: "v9", numeric: []string{"media_type_Reel"}, dims: []schema.Dimension{{Name: "media_type", Values: []string{"Reel"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := schema.New(tt.version, tt.numeric, tt.dims)
			assert.ErrorIs(t, err, schema.ErrInvalidSchema)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "schema.yml")
	body := "version: v2\nnumeric: [likes, reach]\ndimensions:\n  - name: media_type\n    values: [Photo, Reel]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	s, err := schema.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "v2", s.Version())
	assert.Equal(t, []string{"likes", "reach", "media_type_Photo", "media_type_Reel"}, s.Columns())

	resolved, err := schema.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultVersion, resolved.Version())

	_, err = schema.LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
