package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
)

// ErrNoPayload means the page carried no embedded results model.
var ErrNoPayload = errors.New("results payload not found")

// apiModelPattern marks where the model assignment starts. The JSON value that
// follows is read by a decoder, so semicolons and newlines inside it are fine.
var apiModelPattern = regexp.MustCompile(`window\.apiModel\s*=\s*`)

type apiModel struct {
	MapSlug        string `json:"mapSlug"`
	RoundTimeLimit int    `json:"roundTimeLimit"`
	HiScores       []struct {
		PlayerName string `json:"playerName"`
		TotalScore int    `json:"totalScore"`
	} `json:"hiScores"`
}

// Extract finds the embedded results model in a results page and converts it
// into a RawMatch. The payload is not validated here.
func Extract(body []byte) (matchdomain.RawMatch, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return matchdomain.RawMatch{}, fmt.Errorf("parse results page: %w", err)
	}

	var blob string
	doc.Find(`script[type="text/javascript"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if loc := apiModelPattern.FindStringIndex(text); loc != nil {
			blob = text[loc[1]:]
			return false
		}
		return true
	})
	if blob == "" {
		return matchdomain.RawMatch{}, ErrNoPayload
	}

	var model apiModel
	if err := json.NewDecoder(strings.NewReader(blob)).Decode(&model); err != nil {
		return matchdomain.RawMatch{}, fmt.Errorf("%w: decode apiModel: %v", ErrNoPayload, err)
	}

	raw := matchdomain.RawMatch{
		Map:       model.MapSlug,
		TimeLimit: model.RoundTimeLimit,
	}
	if model.HiScores != nil {
		raw.Scores = make([]matchdomain.ScoreEntry, 0, len(model.HiScores))
		for _, hs := range model.HiScores {
			raw.Scores = append(raw.Scores, matchdomain.ScoreEntry{
				PlayerName: hs.PlayerName,
				TotalScore: hs.TotalScore,
			})
		}
	}
	return raw, nil
}
