package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Record is the metadata the store returns for one app.
type Record struct {
	Type                string         `json:"type"`
	Name                string         `json:"name"`
	ID                  int64          `json:"steam_appid"`
	RequiredAge         FlexInt        `json:"required_age"`
	IsFree              bool           `json:"is_free"`
	ControllerSupport   string         `json:"controller_support,omitempty"`
	DLC                 []int64        `json:"dlc,omitempty"`
	DetailedDescription string         `json:"detailed_description"`
	AboutTheGame        string         `json:"about_the_game"`
	ShortDescription    string         `json:"short_description"`
	FullGame            *FullGame      `json:"fullgame,omitempty"`
	SupportedLanguages  string         `json:"supported_languages,omitempty"`
	HeaderImage         string         `json:"header_image"`
	CapsuleImage        string         `json:"capsule_image"`
	CapsuleImageV5      string         `json:"capsule_imagev5"`
	Website             string         `json:"website,omitempty"`
	PCRequirements      Requirements   `json:"pc_requirements"`
	MacRequirements     Requirements   `json:"mac_requirements"`
	LinuxRequirements   Requirements   `json:"linux_requirements"`
	LegalNotice         string         `json:"legal_notice,omitempty"`
	Developers          []string       `json:"developers,omitempty"`
	Publishers          []string       `json:"publishers,omitempty"`
	Demos               []Demo         `json:"demos,omitempty"`
	PriceOverview       *PriceOverview `json:"price_overview,omitempty"`
	Packages            []int64        `json:"packages,omitempty"`
	PackageGroups       []PackageGroup `json:"package_groups,omitempty"`
	Reviews             string         `json:"reviews,omitempty"`
	Platforms           Platforms      `json:"platforms"`
	Metacritic          *Metacritic    `json:"metacritic,omitempty"`
	Categories          []Category     `json:"categories,omitempty"`
	Genres              []Genre        `json:"genres,omitempty"`
	Screenshots         []Screenshot   `json:"screenshots,omitempty"`
	Movies              []Movie        `json:"movies,omitempty"`
	Recommendations     *Total         `json:"recommendations,omitempty"`
	Achievements        *Achievements  `json:"achievements,omitempty"`
	ReleaseDate         ReleaseDate    `json:"release_date"`
	SupportInfo         SupportInfo    `json:"support_info"`
}

// Requirements holds the HTML requirement blurbs for one platform. The store
// sends an empty array instead of an object when a platform has none; that
// shape decodes as the zero value.
type Requirements struct {
	Minimum     string `json:"minimum,omitempty"`
	Recommended string `json:"recommended,omitempty"`
}

func (r *Requirements) UnmarshalJSON(data []byte) error {
	type plain Requirements
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		*r = Requirements{}
		return nil
	}
	*r = Requirements(decoded)
	return nil
}

// FlexInt decodes integers the store encodes either as numbers or as numeric
// strings ("required_age": "18"). Unparseable values decode as zero.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		n = 0
	}
	*f = FlexInt(n)
	return nil
}

// FullGame points a demo or DLC at its parent app. The store sends the id
// as a string.
type FullGame struct {
	AppID FlexInt `json:"appid"`
	Name  string  `json:"name"`
}

type Demo struct {
	AppID       int64  `json:"appid"`
	Description string `json:"description"`
}

type PackageGroup struct {
	Name          string       `json:"name"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	SelectionText string       `json:"selection_text"`
	SaveText      string       `json:"save_text"`
	Subs          []PackageSub `json:"subs,omitempty"`
}

type PackageSub struct {
	PackageID                int64   `json:"packageid"`
	PercentSavingsText       string  `json:"percent_savings_text"`
	PercentSavings           int64   `json:"percent_savings"`
	OptionText               string  `json:"option_text"`
	OptionDescription        string  `json:"option_description"`
	IsFreeLicense            bool    `json:"is_free_license"`
	PriceInCentsWithDiscount FlexInt `json:"price_in_cents_with_discount"`
}

type Total struct {
	Total int64 `json:"total"`
}

type Achievements struct {
	Total       int64         `json:"total"`
	Highlighted []Achievement `json:"highlighted,omitempty"`
}

type Achievement struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type SupportInfo struct {
	URL   string `json:"url"`
	Email string `json:"email"`
}

type PriceOverview struct {
	Currency         string `json:"currency"`
	Initial          int64  `json:"initial"`
	Final            int64  `json:"final"`
	DiscountPercent  int64  `json:"discount_percent"`
	InitialFormatted string `json:"initial_formatted"`
	FinalFormatted   string `json:"final_formatted"`
}

type Platforms struct {
	Windows bool `json:"windows"`
	Mac     bool `json:"mac"`
	Linux   bool `json:"linux"`
}

type Metacritic struct {
	Score int64  `json:"score"`
	URL   string `json:"url"`
}

type Category struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// Genre ids arrive as strings from the store.
type Genre struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type Screenshot struct {
	ID            int64  `json:"id"`
	PathThumbnail string `json:"path_thumbnail"`
	PathFull      string `json:"path_full"`
}

type Movie struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	WebM      MovieVariants `json:"webm"`
	MP4       MovieVariants `json:"mp4"`
	Highlight bool          `json:"highlight"`
}

// MovieVariants maps the store's "480" and "max" renditions.
type MovieVariants struct {
	Low string `json:"480"`
	Max string `json:"max"`
}

type ReleaseDate struct {
	ComingSoon bool   `json:"coming_soon"`
	Date       string `json:"date"`
}
