package contactrelay

// Submission is a contact form entry.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Result is the relay's answer to a submission.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Health is the relay's health report.
type Health struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
}
