package detection

import "strings"

// NeutralPercent is reported whenever the model answer cannot be obtained or parsed.
const NeutralPercent = 50

// Input is the body of an /ai-check call. Text wins over ImageURL, which wins over VideoURL.
type Input struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
	VideoURL string `json:"video_url"`
}

// Normalize trims all fields.
func (in Input) Normalize() Input {
	return Input{
		Text:     strings.TrimSpace(in.Text),
		ImageURL: strings.TrimSpace(in.ImageURL),
		VideoURL: strings.TrimSpace(in.VideoURL),
	}
}

func (in Input) Empty() bool {
	return in.Text == "" && in.ImageURL == "" && in.VideoURL == ""
}

// Result is the normalized verdict. Percent is always within [0,100].
type Result struct {
	Percent int    `json:"ai_percent"`
	Message string `json:"message"`
}

// Clamp bounds p to [0,100].
func Clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
