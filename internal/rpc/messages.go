package rpc

import "github.com/dmitrijs2005/canvasser/internal/models"

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// RecordsRequest carries a batch for Upsert and Insert.
type RecordsRequest struct {
	UserID  string                   `json:"user_id"`
	Records []models.AnnotationPatch `json:"records"`
}

type RecordsResponse struct {
	Records []models.AnnotationPatch `json:"records"`
}

type UpdateOneRequest struct {
	UserID     string            `json:"user_id"`
	ID         string            `json:"id"`
	Annotation models.Annotation `json:"annotation"`
}

type RecordResponse struct {
	Record models.AnnotationPatch `json:"record"`
}

type QueryByCityRequest struct {
	UserID string `json:"user_id"`
	City   string `json:"city"`
}

type DeleteAllRequest struct {
	UserID string `json:"user_id"`
}

type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
	// Archive is the object key of the pre-delete export, if one was made.
	Archive string `json:"archive,omitempty"`
}

// UserScoped is implemented by every request that acts on one user's data.
type UserScoped interface {
	GetUserID() string
}

func (r *RecordsRequest) GetUserID() string     { return r.UserID }
func (r *UpdateOneRequest) GetUserID() string   { return r.UserID }
func (r *QueryByCityRequest) GetUserID() string { return r.UserID }
func (r *DeleteAllRequest) GetUserID() string   { return r.UserID }
