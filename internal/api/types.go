// Package api provides the REST client for the help-center backend.
//
// All endpoints live under a configurable base path (e.g.
// http://localhost:8000/api/v1). Every request carries a bearer token when
// one is available; a 401/403 response surfaces as ErrUnauthenticated so the
// session layer can fail closed.
package api

import "time"

// Role is a user's authorization role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the authenticated identity record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the user may enter admin-only views.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TokenResponse is the body of POST /auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// VerifyResponse is the body of GET /auth/verify.
type VerifyResponse struct {
	User User `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Category is a help category record.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AnalyzeRequest is the body of POST /chat/analyze.
type AnalyzeRequest struct {
	Content   string `json:"content"`
	Category  string `json:"category"`
	UserID    string `json:"user_id,omitempty"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// AnalyzeResponse is the body returned by POST /chat/analyze.
type AnalyzeResponse struct {
	ID            string  `json:"id"`
	Content       string  `json:"content"`
	Confidence    float64 `json:"confidence"`
	CreatedAt     string  `json:"created_at"`
	UserMessageID string  `json:"user_message_id"`
}

// FeedbackSubmission is the body of POST /feedback/submit.
type FeedbackSubmission struct {
	MessageID              string `json:"message_id"`
	Rating                 int    `json:"rating"`
	FeedbackType           string `json:"feedback_type"`
	Comment                string `json:"comment,omitempty"`
	ImprovementSuggestions string `json:"improvement_suggestions,omitempty"`
}

// FeedbackStats is the body of GET /feedback/stats.
type FeedbackStats struct {
	TotalSubmissions int     `json:"total_submissions"`
	AverageRating    float64 `json:"average_rating"`
	PositiveCount    int     `json:"positive_count"`
	NegativeCount    int     `json:"negative_count"`
}

// JobStatus is the lifecycle state of a media analysis job.
type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// Terminal reports whether the status is final for the life of the job.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// UploadResponse is the body of POST /media/voice and /media/image.
type UploadResponse struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

// AnalysisResult is the transcription produced by a completed job.
type AnalysisResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// AnalysisJob is the body of GET /media/analysis/{id}.
type AnalysisJob struct {
	ID     string          `json:"id"`
	Status JobStatus       `json:"status"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Metrics is the body of GET /admin/metrics.
type Metrics struct {
	TotalUsers          int     `json:"totalUsers"`
	ActiveUsers         int     `json:"activeUsers"`
	TotalMessages       int     `json:"totalMessages"`
	SystemHealth        float64 `json:"systemHealth"`
	AIAccuracy          float64 `json:"aiAccuracy"`
	AverageResponseTime float64 `json:"averageResponseTime"`
}

// AdminUser is one row of GET /admin/users.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// RoleRecord is one row of GET /admin/roles.
type RoleRecord struct {
	Name        Role     `json:"name"`
	Permissions []string `json:"permissions"`
	UserCount   int      `json:"user_count"`
}

// LogEntry is one row of GET /admin/logs.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
}
