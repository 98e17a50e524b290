// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

// X API v2 JSON structures shared by the search and lookup endpoints.
type apiResponse struct {
	Data     []apiPost   `json:"data"`
	Includes apiIncludes `json:"includes"`
	Meta     apiMeta     `json:"meta"`
}

type apiPost struct {
	ID            string      `json:"id"`
	Text          string      `json:"text"`
	AuthorID      string      `json:"author_id"`
	CreatedAt     string      `json:"created_at"`
	PublicMetrics *apiMetrics `json:"public_metrics"`
}

type apiMetrics struct {
	RetweetCount flexInt `json:"retweet_count"`
	LikeCount    flexInt `json:"like_count"`
	ReplyCount   flexInt `json:"reply_count"`
	QuoteCount   flexInt `json:"quote_count"`
}

type apiIncludes struct {
	Users []apiUser `json:"users"`
}

type apiUser struct {
	ID            string `json:"id"`
	PublicMetrics struct {
		FollowersCount flexInt `json:"followers_count"`
	} `json:"public_metrics"`
}

type apiMeta struct {
	NextToken   string `json:"next_token"`
	ResultCount int    `json:"result_count"`
}

// flexInt decodes a JSON number or numeric string; anything else is 0.
// Negative values are clamped to 0 since engagement counts cannot be negative.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = 0
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(s)
	}
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*f = flexInt(max(n, 0))
		return nil
	}
	if x, err := strconv.ParseFloat(string(b), 64); err == nil {
		*f = flexInt(max(int64(x), 0))
	}
	return nil
}

func (m *apiMetrics) toPublic() types.PublicMetrics {
	return types.PublicMetrics{
		RetweetCount: int(m.RetweetCount),
		LikeCount:    int(m.LikeCount),
		ReplyCount:   int(m.ReplyCount),
		QuoteCount:   int(m.QuoteCount),
	}
}

// followersByAuthor indexes included users by id.
func followersByAuthor(inc apiIncludes) map[string]int {
	out := make(map[string]int, len(inc.Users))
	for _, u := range inc.Users {
		if u.ID != "" {
			out[u.ID] = int(u.PublicMetrics.FollowersCount)
		}
	}
	return out
}
