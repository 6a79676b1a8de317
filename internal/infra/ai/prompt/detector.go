package prompt

import "github.com/bryanwahyu/vectora/internal/domain/detection"

// GetDetectorSystemPrompt asks for a bare JSON verdict.
func GetDetectorSystemPrompt() string {
	return `You are an AI detector. Analyze the provided content and determine the percentage likelihood it was generated by AI (0-100%). Respond ONLY with a JSON object like: {"ai_percent": 75, "message": "Likely AI-generated"}`
}

// GetDetectorPrompt builds the detector prompt for the highest priority
// field of in. Image and video URLs are passed as text only; the media is
// never fetched. It returns "" when in is empty.
func GetDetectorPrompt(in detection.Input) string {
	in = in.Normalize()
	switch {
	case in.Text != "":
		return GetDetectorSystemPrompt() + "\n\nAnalyze this text:\n" + in.Text
	case in.ImageURL != "":
		return GetDetectorSystemPrompt() + "\n\nAnalyze this image from URL: " + in.ImageURL
	case in.VideoURL != "":
		return GetDetectorSystemPrompt() + "\n\nAnalyze this video from URL: " + in.VideoURL
	}
	return ""
}
