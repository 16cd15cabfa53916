package evidence

import (
	"strings"

	"nirvana_backend/internal/intake/prompting"
)

func buildSpamPrompt(label string) string {
	var sb strings.Builder
	sb.WriteString("You decide whether an image is relevant for a civic complaint system.\n")
	sb.WriteString("The image analysis result is between the user data markers.\n\n")
	sb.WriteString(prompting.WrapUserData(prompting.SanitizeUserInput(label, 500)))
	sb.WriteString("\n\n")
	sb.WriteString("RELEVANT: roads, buildings, public facilities, water pipes, electrical systems, manholes, drainage, potholes, damage, construction, waste, graffiti, street lighting, traffic.\n")
	sb.WriteString("SPAM: selfies, people, faces, bedrooms, kitchens, offices, food, drinks, clothing, toys, games, pets (unless a public health issue).\n\n")
	sb.WriteString("Respond in exactly this format:\n")
	sb.WriteString("SPAM: <YES/NO>\n")
	sb.WriteString("REASON: <brief explanation>\n")
	sb.WriteString("CONFIDENCE: <1-10>\n\n")
	sb.WriteString("Examples:\n")
	sb.WriteString("- \"person, face, selfie\" -> YES\n")
	sb.WriteString("- \"open manhole, road\" -> NO\n")
	sb.WriteString("- \"food, drink, restaurant\" -> YES\n")
	sb.WriteString("- \"pothole, asphalt, damage\" -> NO\n")
	return sb.String()
}

func buildConsistencyPrompt(description, label string) string {
	var sb strings.Builder
	sb.WriteString("You decide whether an image supports a civic complaint.\n")
	sb.WriteString("The complaint description and the image analysis result are between the user data markers.\n\n")
	sb.WriteString(prompting.WrapUserData(
		"COMPLAINT DESCRIPTION: " + prompting.SanitizeUserInput(description, 2000) +
			"\nIMAGE ANALYSIS RESULT: " + prompting.SanitizeUserInput(label, 500)))
	sb.WriteString("\n\n")
	sb.WriteString("Consider semantic relationships (a manhole complaint with an open hole image), context, and reasonable variations in terminology.\n\n")
	sb.WriteString("Respond in exactly this format:\n")
	sb.WriteString("MATCH: <YES/NO>\n")
	sb.WriteString("REASON: <brief explanation>\n")
	sb.WriteString("CONFIDENCE: <1-10>\n\n")
	sb.WriteString("Examples:\n")
	sb.WriteString("- manhole complaint + \"open manhole\" -> YES\n")
	sb.WriteString("- pothole complaint + \"road damage\" -> YES\n")
	sb.WriteString("- water leak complaint + \"garbage\" -> NO\n")
	sb.WriteString("- electrical issue + \"wire, cable\" -> YES\n")
	return sb.String()
}
