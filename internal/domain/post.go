// Package domain holds the value types passed between the encoder, the
// predictor, the advisor and the transports.
package domain

// Categorical dimension names. Indicator columns are named "<dimension>_<value>".
const (
	DimensionMediaType       = "media_type"
	DimensionTrafficSource   = "traffic_source"
	DimensionContentCategory = "content_category"
)

// Numeric column names, in training order.
const (
	ColumnLikes           = "likes"
	ColumnComments        = "comments"
	ColumnShares          = "shares"
	ColumnSaves           = "saves"
	ColumnReach           = "reach"
	ColumnImpressions     = "impressions"
	ColumnCaptionLength   = "caption_length"
	ColumnHashtagsCount   = "hashtags_count"
	ColumnFollowersGained = "followers_gained"
)

// Input bounds.
const (
	MaxCaptionLength = 2200
	MaxHashtagsCount = 30
)

// PostInput describes one planned post. It is built per request and never stored.
type PostInput struct {
	Likes           float64 `form:"likes"            json:"likes"            validate:"gte=0"`
	Comments        float64 `form:"comments"         json:"comments"         validate:"gte=0"`
	Shares          float64 `form:"shares"           json:"shares"           validate:"gte=0"`
	Saves           float64 `form:"saves"            json:"saves"            validate:"gte=0"`
	Reach           float64 `form:"reach"            json:"reach"            validate:"gte=0"`
	Impressions     float64 `form:"impressions"      json:"impressions"      validate:"gte=0"`
	CaptionLength   float64 `form:"caption_length"   json:"caption_length"   validate:"gte=0,lte=2200"`
	HashtagsCount   float64 `form:"hashtags_count"   json:"hashtags_count"   validate:"gte=0,lte=30"`
	FollowersGained float64 `form:"followers_gained" json:"followers_gained" validate:"gte=0"`

	MediaType       string `form:"media_type"       json:"media_type"`
	TrafficSource   string `form:"traffic_source"   json:"traffic_source"`
	ContentCategory string `form:"content_category" json:"content_category"`
}

// Numeric returns the numeric value stored under a column name.
func (p PostInput) Numeric(column string) (float64, bool) {
	switch column {
	case ColumnLikes:
		return p.Likes, true
	case ColumnComments:
		return p.Comments, true
	case ColumnShares:
		return p.Shares, true
	case ColumnSaves:
		return p.Saves, true
	case ColumnReach:
		return p.Reach, true
	case ColumnImpressions:
		return p.Impressions, true
	case ColumnCaptionLength:
		return p.CaptionLength, true
	case ColumnHashtagsCount:
		return p.HashtagsCount, true
	case ColumnFollowersGained:
		return p.FollowersGained, true
	default:
		return 0, false
	}
}

// Category returns the selected value for a categorical dimension.
func (p PostInput) Category(dimension string) (string, bool) {
	switch dimension {
	case DimensionMediaType:
		return p.MediaType, true
	case DimensionTrafficSource:
		return p.TrafficSource, true
	case DimensionContentCategory:
		return p.ContentCategory, true
	default:
		return "", false
	}
}

// DefaultPostInput returns the values the dashboard form starts with.
func DefaultPostInput() PostInput {
	return PostInput{
		Likes:           1000,
		Comments:        50,
		Shares:          20,
		Saves:           30,
		Reach:           5000,
		Impressions:     6000,
		CaptionLength:   150,
		HashtagsCount:   10,
		FollowersGained: 5,
		MediaType:       "Reel",
		TrafficSource:   "Reels Feed",
		ContentCategory: "Fashion",
	}
}
