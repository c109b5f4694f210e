package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
)

const resultsPage = `<!DOCTYPE html>
<html><head>
<script type="text/javascript">window.dataLayer = [];</script>
<script type="text/javascript">window.apiModel = {"mapSlug":"world","roundTimeLimit":90,"hiScores":[{"playerName":"Alice","totalScore":21034},{"playerName":"bob","totalScore":18877}]};</script>
</head><body></body></html>`

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    matchdomain.RawMatch
		wantErr error
	}{
		{
			name: "results page",
			body: resultsPage,
			want: matchdomain.RawMatch{
				Map:       "world",
				TimeLimit: 90,
				Scores: []matchdomain.ScoreEntry{
					{PlayerName: "Alice", TotalScore: 21034},
					{PlayerName: "bob", TotalScore: 18877},
				},
			},
		},
		{
			name: "empty hiscores",
			body: `<script type="text/javascript">window.apiModel = {"mapSlug":"famous-places","roundTimeLimit":60,"hiScores":[]};</script>`,
			want: matchdomain.RawMatch{Map: "famous-places", TimeLimit: 60, Scores: []matchdomain.ScoreEntry{}},
		},
		{
			name: "missing hiscores stays nil",
			body: `<script type="text/javascript">window.apiModel = {"mapSlug":"world","roundTimeLimit":60};</script>`,
			want: matchdomain.RawMatch{Map: "world", TimeLimit: 60},
		},
		{
			name: "semicolon inside a player name",
			body: `<script type="text/javascript">window.apiModel = {"mapSlug":"world","roundTimeLimit":90,"hiScores":[{"playerName":"Al;ice","totalScore":500}]};</script>`,
			want: matchdomain.RawMatch{
				Map:       "world",
				TimeLimit: 90,
				Scores:    []matchdomain.ScoreEntry{{PlayerName: "Al;ice", TotalScore: 500}},
			},
		},
		{
			name: "pretty printed across lines",
			body: "<script type=\"text/javascript\">\n  window.apiModel =\n  {\n    \"mapSlug\": \"world\",\n    \"roundTimeLimit\": 120,\n    \"hiScores\": [\n      {\"playerName\": \"bob\", \"totalScore\": 7}\n    ]\n  };\n  window.other = 1;\n</script>",
			want: matchdomain.RawMatch{
				Map:       "world",
				TimeLimit: 120,
				Scores:    []matchdomain.ScoreEntry{{PlayerName: "bob", TotalScore: 7}},
			},
		},
		{
			name:    "no model",
			body:    `<html><script type="text/javascript">var x = 1;</script></html>`,
			wantErr: ErrNoPayload,
		},
		{
			name:    "model outside javascript scripts",
			body:    `<script type="application/json">window.apiModel = {"mapSlug":"world"};</script>`,
			wantErr: ErrNoPayload,
		},
		{
			name:    "malformed json",
			body:    `<script type="text/javascript">window.apiModel = {"mapSlug":;</script>`,
			wantErr: ErrNoPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract([]byte(tt.body))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractedPayloadValidates(t *testing.T) {
	got, err := Extract([]byte(resultsPage))
	require.NoError(t, err)
	assert.NoError(t, got.Validate())
}
