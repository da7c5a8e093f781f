package prompts

import "strings"

// Content ratings accepted by ContentRatingPrompt.
const (
	RatingG    = "G"
	RatingPG   = "PG"
	RatingPG13 = "PG-13"
	RatingR    = "R"
)

const contentRatingG = `Write content suitable for young children. Avoid violence, romance and scary elements.`
const contentRatingPG = `Write content suitable for children and families. Mild peril is okay, but avoid strong language and dark themes.`
const contentRatingPG13 = `Write content appropriate for teenagers. Action and mild tension are fine, but avoid graphic violence and explicit adult situations.`
const contentRatingR = `Write with full freedom for adult audiences.`

// FormatPrompt tells the backend to reply with a bare JSON object.
const FormatPrompt = `You are the engine of a text adventure game. Follow the instructions in the user message.
Reply with ONLY a single JSON object. Do not wrap it in Markdown and do not add any text before or after it.`

// SchemaPrompt introduces the response schema for backends without native structured output.
const SchemaPrompt = `The JSON object must match this schema exactly. Every property is required:`

// NormalizeRating maps loose spellings like "pg13" to a known rating.
// Unknown values fall back to PG-13.
func NormalizeRating(rating string) string {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rating), "-", "")) {
	case "G":
		return RatingG
	case "PG":
		return RatingPG
	case "R":
		return RatingR
	default:
		return RatingPG13
	}
}

// ContentRatingPrompt returns the guidance for a content rating.
func ContentRatingPrompt(rating string) string {
	switch NormalizeRating(rating) {
	case RatingG:
		return contentRatingG
	case RatingPG:
		return contentRatingPG
	case RatingR:
		return contentRatingR
	default:
		return contentRatingPG13
	}
}
