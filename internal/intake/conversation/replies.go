package conversation

import (
	"fmt"
	"strings"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/sanitize"
)

const (
	msgGreeting = "Hello! I'm Nirvana, here to help you lodge your complaint. Please describe the issue you're facing.\n\n" +
		"💡 Available commands:\n" +
		"• Type 'cancel' anytime to stop current process\n" +
		"• Type 'history' to view all your complaints\n" +
		"• Type 'status [ID]' to check specific complaint"

	msgDescribeIssue = "Please describe the issue you're facing in a text or voice message.\n\n" +
		"💡 Type 'cancel' anytime to stop this process"

	msgVoiceProcessing = "🎤 Processing your voice message... Please wait a moment."
	msgVoiceFailed     = "❌ Sorry, I couldn't process your voice message. Please try sending a text description instead."

	// msgLocationTextRejected is sent verbatim when an address is typed in the location stage.
	msgLocationTextRejected = "❌ Please use WhatsApp's location sharing feature instead of typing an address.\n" +
		"📍 Tap the '+' button → Location → Send your current location"

	msgLocationExpected = "📍 Please share your exact location using WhatsApp's location sharing feature.\n" +
		"Tap the '+' button → Location → Send your current location"

	msgPromptPhotos   = "This type of problem would benefit from photos. Please send some pictures if possible, or type 'submit' to file without images."
	msgPromptOptional = "You can optionally add photos or more details, or type 'submit' to file the complaint now."

	msgDetailsAdded = "Details added. Type 'submit' when you're ready to file the complaint, or continue sending more details or photos."

	msgMediaPrompt = "Send a photo, add more details, or type 'submit' to file the complaint."

	msgImageFailed = "There was an issue processing your image. Please try sending it again or type 'submit' to continue without an image."

	msgImageStored = "Image received and stored! Please confirm if you want to submit this complaint now by typing 'submit', " +
		"or send any additional details you'd like to add."

	msgConfirmPrompt = "Please confirm submission of your complaint by typing 'submit', or continue sending more details."

	msgCancelNoop = "ℹ️ You don't have any active complaint process to cancel.\n\n" +
		"💡 Type anything to start filing a new complaint!\n" +
		"📋 Type 'history' to view your past complaints."

	msgCancelled = "✅ Your complaint process has been cancelled and reset.\n\n" +
		"🔄 You can start a new complaint anytime by describing your issue.\n" +
		"📋 Type 'history' to view your past complaints.\n" +
		"📊 Type 'status' to check existing complaint status.\n\n" +
		"How can I help you today?"

	msgNoComplaints = "❌ You don't have any complaints on record. Type anything to file a new one."

	msgNoHistory = "📋 Complaint History\n\n" +
		"❌ You don't have any complaints on record yet.\n\n" +
		"💡 Type anything to start filing your first complaint!"

	msgSubmitFailed = "Sorry, there was an error submitting your complaint. Please try again by typing 'submit'."
	msgStorageError = "Sorry, we couldn't reach our records right now. Please try again in a few minutes."
	msgGenericError = "Sorry, there was an error processing your complaint. Please try again."

	msgProgressLost  = "Sorry, we couldn't save your progress. Please send any message to start a new complaint."
	msgStateNotSaved = "⚠️ We couldn't update your conversation. Please type 'cancel' before sending anything else."
)

const (
	saveAttempts     = 2
	statusListLimit  = 5
	historyListLimit = 10
	titlePreviewLen  = 60
	historyTitleLen  = 50
)

var submitTokens = map[string]struct{}{
	"submit":  {},
	"confirm": {},
	"yes":     {},
}

func isSubmit(text string) bool {
	_, ok := submitTokens[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func unregisteredReply(senderID, purpose string) string {
	return fmt.Sprintf("❌ Hello! I couldn't find your phone number (%s) in our system.\n\n"+
		"To %s, you need to register first:\n"+
		"📱 Visit our website to register your phone number\n"+
		"🔗 After registration, return here to continue\n\n"+
		"If you believe this is an error, please contact support.", senderID, purpose)
}

func classifiedReply(dept domain.Department) string {
	return fmt.Sprintf("Thanks for the description! I've categorized this as a %s issue. "+
		"Now, please share your exact location using WhatsApp's location sharing feature.\n"+
		"📍 Tap the '+' button → Location → Send your current location\n\n"+
		"💡 Type 'cancel' anytime to stop this process", dept)
}

func locationAcceptedReply(reason string, needsImage bool) string {
	if needsImage {
		return "✅ " + reason + "\n" + msgPromptPhotos
	}
	return "✅ " + reason + "\n" + msgPromptOptional
}

func submittedReply(c domain.Complaint, trackingURL string) string {
	var sb strings.Builder
	sb.WriteString("✅ Your complaint has been successfully logged!\n\n")
	sb.WriteString("📋 Tracking ID: " + c.ShortID() + "\n")
	sb.WriteString("📝 Title: " + sanitize.Truncate(c.Title, titlePreviewLen) + "\n")
	sb.WriteString("🏢 Department: " + c.Category + "\n")
	sb.WriteString("⚠️ Severity: " + domain.SeverityBand(c.SeverityScore) + "\n")
	sb.WriteString("📅 Status: Submitted\n\n")
	if trackingURL != "" {
		sb.WriteString("🔗 Track online: " + trackingURL + "\n\n")
	}
	sb.WriteString("We'll notify you of any updates. Check status anytime with 'status " + c.ShortID() + "'!")
	return sb.String()
}

func statusDetailReply(c domain.Complaint) string {
	return fmt.Sprintf("📋 Complaint Status\n\n"+
		"🆔 ID: %s\n"+
		"📝 Title: %s\n"+
		"🏢 Department: %s\n"+
		"⚠️ Severity: %s\n"+
		"📌 Status: %s\n"+
		"📅 Created: %s",
		c.ShortID(), sanitize.Truncate(c.Title, titlePreviewLen), c.Category,
		domain.SeverityBand(c.SeverityScore), statusLabel(c.Status), formatDate(c))
}

func statusListReply(complaints []domain.Complaint) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Your Complaints (%d total):\n\n", len(complaints)))
	shown := complaints
	if len(shown) > statusListLimit {
		shown = shown[:statusListLimit]
	}
	for _, c := range shown {
		sb.WriteString(fmt.Sprintf("🆔 %s - %s\n", c.ShortID(), c.Category))
	}
	if len(complaints) > statusListLimit {
		sb.WriteString(fmt.Sprintf("\n... and %d more.", len(complaints)-statusListLimit))
	}
	sb.WriteString("\n\nSend 'status [ID]' for details on a specific complaint.")
	return sb.String()
}

func historyReply(complaints []domain.Complaint) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Your Complaint History (%d total):\n\n", len(complaints)))
	for i, c := range complaints {
		if i == historyListLimit {
			sb.WriteString(fmt.Sprintf("... and %d more complaints.\n\n", len(complaints)-historyListLimit))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. 🆔 %s\n", i+1, c.ShortID()))
		sb.WriteString("   📝 " + sanitize.Truncate(c.Title, historyTitleLen) + "\n")
		sb.WriteString(fmt.Sprintf("   🏢 %s | ⚠️ %s\n", c.Category, domain.SeverityBand(c.SeverityScore)))
		sb.WriteString("   📅 " + formatDate(c) + "\n\n")
	}
	sb.WriteString("💡 Send 'status [ID]' for details on a specific complaint.")
	return sb.String()
}

func notFoundReply(id string) string {
	return "❌ No complaint found with ID: " + id
}

func formatDate(c domain.Complaint) string {
	if c.CreatedAt.IsZero() {
		return "Unknown"
	}
	return c.CreatedAt.Format("2006-01-02")
}

func statusLabel(s string) string {
	switch strings.ToLower(s) {
	case "", domain.ComplaintStatusOpen:
		return "Submitted"
	case "in_progress":
		return "In progress"
	case "resolved":
		return "Resolved"
	case "rejected":
		return "Rejected"
	default:
		return s
	}
}
